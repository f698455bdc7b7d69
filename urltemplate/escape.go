// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package urltemplate

import "strings"

const upperhex = "0123456789ABCDEF"

// Escape percent-encodes every byte of s outside the RFC 3986
// unreserved set (ALPHA, DIGIT, '-', '.', '_', '~'), using upper-case
// hex digits. Multi-byte UTF-8 sequences are escaped byte by byte.
//
// Escape differs from url.QueryEscape, which writes a space as '+', and
// from url.PathEscape, which leaves sub-delimiters such as '&' and '='
// alone. Either would let a value change the structure of the URL it is
// substituted into.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	default:
		return false
	}
}
