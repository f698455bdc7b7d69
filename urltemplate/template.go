// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package urltemplate builds reusable URL templates out of a base URL
// and named route and query parameters, and resolves them back into
// concrete URLs.
//
// A template is a URL string containing {name} placeholders:
//
//	tpl, err := urltemplate.Create("https://api.example.com/users/42",
//		[]urltemplate.Param{{Name: "42", Value: "42"}},
//		[]urltemplate.Param{{Name: "fields", Value: "id,name"}})
//	...
//	u, err := tpl.ToURL()
//
// Route parameters rewrite a literal occurrence of their name in the
// base URL into a placeholder, unless the base URL already contains the
// placeholder. Query parameters are appended, each one introduced by
// its own '?', unless the StandardQuery option is given.
package urltemplate

import (
	"errors"
	"net/url"
	"strings"
)

var (
	// ErrEmptyBaseURL is returned by Create when the base URL is empty
	// or contains only white space.
	ErrEmptyBaseURL = errors.New("courier/urltemplate: empty base URL")
	// ErrEmptyName is returned by Create when a parameter has an empty
	// name.
	ErrEmptyName = errors.New("courier/urltemplate: empty parameter name")
	// ErrInvalidURL is returned by ToURL when the resolved template is
	// not a valid absolute URL.
	ErrInvalidURL = errors.New("courier/urltemplate: invalid URL")
)

// A Param is a named value substituted into a template.
type Param struct {
	Name  string
	Value string
}

// A Template is a templated URL together with the parameters that
// resolve it.
type Template struct {
	// URL is the templated URL, with placeholders written as {name}
	// where name is the escaped parameter name.
	URL string

	// Route holds the route parameters in the order they were given
	// to Create.
	Route []Param

	// Query holds the query parameters in the order they were given
	// to Create.
	Query []Param
}

// An Option changes how Create builds a template.
type Option func(*options)

type options struct {
	standardQuery bool
}

// StandardQuery makes Create join query parameters with '&' the way a
// conventional query string is written. Only the first query parameter
// is introduced by '?', and only if the base URL has no query yet.
//
// Without this option every query parameter is introduced by its own
// '?'.
func StandardQuery() Option {
	return func(o *options) {
		o.standardQuery = true
	}
}

// Create builds a template from a base URL and ordered route and query
// parameters. Nil parameter slices are treated as empty.
//
// For each route parameter, if the placeholder {name} does not already
// appear in baseURL, the first literal occurrence of the raw parameter
// name in the template built so far is replaced by the placeholder. For
// each query parameter, name={name} is appended. Duplicate names are
// not an error; each step operates on the template as it stands.
func Create(baseURL string, route, query []Param, opts ...Option) (*Template, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrEmptyBaseURL
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	templated := baseURL
	for _, p := range route {
		if p.Name == "" {
			return nil, ErrEmptyName
		}
		token := placeholder(p.Name)
		if !strings.Contains(baseURL, token) {
			templated = strings.Replace(templated, p.Name, token, 1)
		}
	}

	var b strings.Builder
	b.WriteString(templated)
	hasQuery := strings.Contains(templated, "?")
	for i, p := range query {
		if p.Name == "" {
			return nil, ErrEmptyName
		}
		sep := byte('?')
		if o.standardQuery && (i > 0 || hasQuery) {
			sep = '&'
		}
		b.WriteByte(sep)
		b.WriteString(Escape(p.Name))
		b.WriteByte('=')
		b.WriteString(placeholder(p.Name))
	}

	return &Template{
		URL:   b.String(),
		Route: clone(route),
		Query: clone(query),
	}, nil
}

// ToURL resolves the template into a concrete URL. Every placeholder of
// a route parameter and then of a query parameter is replaced by the
// escaped parameter value.
//
// ToURL returns ErrInvalidURL if the result does not parse as an
// absolute URL with a host.
func (t *Template) ToURL() (*url.URL, error) {
	if t == nil {
		return nil, ErrInvalidURL
	}

	s := t.URL
	for _, p := range t.Route {
		s = strings.ReplaceAll(s, placeholder(p.Name), Escape(p.Value))
	}
	for _, p := range t.Query {
		s = strings.ReplaceAll(s, placeholder(p.Name), Escape(p.Value))
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, &Error{URL: s, Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, &Error{URL: s}
	}
	return u, nil
}

// String returns the templated URL.
func (t *Template) String() string {
	return t.URL
}

// An Error reports a resolved template which is not a valid absolute
// URL. It matches ErrInvalidURL under errors.Is.
type Error struct {
	URL string
	Err error
}

func (err *Error) Error() string {
	msg := ErrInvalidURL.Error() + " " + `"` + err.URL + `"`
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *Error) Is(target error) bool {
	return target == ErrInvalidURL
}

func (err *Error) Unwrap() error {
	return err.Err
}

func placeholder(name string) string {
	return "{" + Escape(name) + "}"
}

func clone(ps []Param) []Param {
	if len(ps) == 0 {
		return nil
	}
	c := make([]Param, len(ps))
	copy(c, ps)
	return c
}
