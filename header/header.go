// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package header provides an ordered list of HTTP header fields.
//
// Unlike http.Header, a List preserves the order in which fields were
// added and keeps each value as a separate entry, which makes it a
// faithful record of what a caller asked to send or of what a response
// carried once multi-valued fields have been flattened.
package header

import (
	"net/http"
	"net/textproto"
	"sort"
	"strings"
)

// A Field is a single header name/value pair.
type Field struct {
	Name  string
	Value string
}

// A List is an ordered sequence of header fields. Name comparisons are
// case-insensitive; the original spelling of each name is preserved.
type List []Field

// Add appends a field to the list.
func (l *List) Add(name, value string) {
	*l = append(*l, Field{Name: name, Value: value})
}

// Set removes every field with the given name and appends a single
// field in its place.
func (l *List) Set(name, value string) {
	l.Del(name)
	l.Add(name, value)
}

// Del removes every field with the given name. The remaining fields
// are copied to new storage, so lists sharing l's backing array are
// unaffected.
func (l *List) Del(name string) {
	if len(*l) == 0 {
		return
	}
	var kept List
	for _, f := range *l {
		if !strings.EqualFold(f.Name, name) {
			kept = append(kept, f)
		}
	}
	*l = kept
}

// Get returns the value of the first field with the given name, or the
// empty string if there is none.
func (l List) Get(name string) string {
	for _, f := range l {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Values returns the values of every field with the given name, in
// list order.
func (l List) Values(name string) []string {
	var vs []string
	for _, f := range l {
		if strings.EqualFold(f.Name, name) {
			vs = append(vs, f.Value)
		}
	}
	return vs
}

// Clone returns a copy of l which shares no storage with it. The clone
// of a nil list is nil.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	l2 := make(List, len(l))
	copy(l2, l)
	return l2
}

// HTTP converts the list to an http.Header, adding fields in list
// order so that repeated names keep their relative order.
func (l List) HTTP() http.Header {
	h := make(http.Header, len(l))
	for _, f := range l {
		h.Add(f.Name, f.Value)
	}
	return h
}

// Flatten converts an http.Header into a List holding exactly one field
// per header name. Multiple values for the same name are joined with a
// comma. Fields are sorted by canonical name so the result does not
// depend on map iteration order.
//
// The flattened list of a nil or empty header is empty but non-nil.
func Flatten(h http.Header) List {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return textproto.CanonicalMIMEHeaderKey(names[i]) < textproto.CanonicalMIMEHeaderKey(names[j])
	})
	l := make(List, 0, len(names))
	for _, name := range names {
		l = append(l, Field{Name: name, Value: strings.Join(h[name], ",")})
	}
	return l
}
