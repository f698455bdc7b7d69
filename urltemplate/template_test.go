// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package urltemplate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	testCases := []struct {
		name     string
		base     string
		route    []Param
		query    []Param
		opts     []Option
		expected string
	}{
		{
			name:     "no parameters",
			base:     "https://api.example.com/resource",
			expected: "https://api.example.com/resource",
		},
		{
			name:     "single query parameter",
			base:     "https://api.example.com/resource",
			query:    []Param{{"max_length", "20"}},
			expected: "https://api.example.com/resource?max_length={max_length}",
		},
		{
			name:     "repeated question mark",
			base:     "https://test.com/{section}",
			query:    []Param{{"queryparam", "q"}, {"anotherqueryparam", "2"}},
			expected: "https://test.com/{section}?queryparam={queryparam}?anotherqueryparam={anotherqueryparam}",
		},
		{
			name:     "standard query",
			base:     "https://test.com/{section}",
			query:    []Param{{"queryparam", "q"}, {"anotherqueryparam", "2"}},
			opts:     []Option{StandardQuery()},
			expected: "https://test.com/{section}?queryparam={queryparam}&anotherqueryparam={anotherqueryparam}",
		},
		{
			name:     "standard query after existing query",
			base:     "https://test.com/search?lang=en",
			query:    []Param{{"q", "go"}},
			opts:     []Option{StandardQuery()},
			expected: "https://test.com/search?lang=en&q={q}",
		},
		{
			name:     "literal route value becomes placeholder",
			base:     "https://test.com/users/42/posts/42",
			route:    []Param{{"42", "7"}},
			expected: "https://test.com/users/{42}/posts/42",
		},
		{
			name:     "existing placeholder left untouched",
			base:     "https://test.com/{section}/section",
			route:    []Param{{"section", "news"}},
			expected: "https://test.com/{section}/section",
		},
		{
			name:     "absent route name",
			base:     "https://test.com/a",
			route:    []Param{{"zzz", "1"}},
			expected: "https://test.com/a",
		},
		{
			name:     "query name escaped",
			base:     "https://test.com",
			query:    []Param{{"a&b", "x y"}},
			expected: "https://test.com?a%26b={a%26b}",
		},
		{
			name:     "duplicate route names",
			base:     "https://test.com/id/id",
			route:    []Param{{"id", "1"}, {"id", "2"}},
			expected: "https://test.com/{{id}}/id",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			tpl, err := Create(testCase.base, testCase.route, testCase.query, testCase.opts...)
			require.NoError(t, err)
			require.NotNil(t, tpl)
			assert.Equal(t, testCase.expected, tpl.URL)
			assert.Equal(t, testCase.expected, tpl.String())
		})
	}
}

func TestCreateErrors(t *testing.T) {
	_, err := Create("", nil, nil)
	assert.Same(t, ErrEmptyBaseURL, err)
	_, err = Create(" \t\n", nil, nil)
	assert.Same(t, ErrEmptyBaseURL, err)
	_, err = Create("https://test.com", []Param{{"", "x"}}, nil)
	assert.Same(t, ErrEmptyName, err)
	_, err = Create("https://test.com", nil, []Param{{"", "x"}})
	assert.Same(t, ErrEmptyName, err)
}

func TestCreateCopiesParams(t *testing.T) {
	route := []Param{{"section", "news"}}
	tpl, err := Create("https://test.com/{section}", route, nil)
	require.NoError(t, err)
	route[0].Value = "sport"
	u, err := tpl.ToURL()
	require.NoError(t, err)
	assert.Equal(t, "https://test.com/news", u.String())
}

func TestToURL(t *testing.T) {
	testCases := []struct {
		name     string
		base     string
		route    []Param
		query    []Param
		opts     []Option
		expected string
	}{
		{
			name:     "single query parameter",
			base:     "https://api.example.com/resource",
			query:    []Param{{"max_length", "20"}},
			expected: "https://api.example.com/resource?max_length=20",
		},
		{
			name:     "route and repeated query",
			base:     "https://test.com/{section}",
			route:    []Param{{"section", "news"}},
			query:    []Param{{"queryparam", "q"}, {"anotherqueryparam", "2"}},
			expected: "https://test.com/news?queryparam=q?anotherqueryparam=2",
		},
		{
			name:     "route and standard query",
			base:     "https://test.com/{section}",
			route:    []Param{{"section", "news"}},
			query:    []Param{{"queryparam", "q"}, {"anotherqueryparam", "2"}},
			opts:     []Option{StandardQuery()},
			expected: "https://test.com/news?queryparam=q&anotherqueryparam=2",
		},
		{
			name:     "literal route value",
			base:     "https://test.com/users/42",
			route:    []Param{{"42", "7"}},
			expected: "https://test.com/users/7",
		},
		{
			name:     "values escaped",
			base:     "https://test.com/{path}",
			route:    []Param{{"path", "a/b c"}},
			query:    []Param{{"q", "x&y={z}"}},
			expected: "https://test.com/a%2Fb%20c?q=x%26y%3D%7Bz%7D",
		},
		{
			name:     "escaped name",
			base:     "https://test.com",
			query:    []Param{{"a&b", "x y"}},
			expected: "https://test.com?a%26b=x%20y",
		},
		{
			name:     "duplicate query names take first value",
			base:     "https://test.com",
			query:    []Param{{"q", "1"}, {"q", "2"}},
			opts:     []Option{StandardQuery()},
			expected: "https://test.com?q=1&q=1",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			tpl, err := Create(testCase.base, testCase.route, testCase.query, testCase.opts...)
			require.NoError(t, err)
			u, err := tpl.ToURL()
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, u.String())
			assert.False(t, strings.ContainsAny(u.String(), "{}"), "residual brace in %q", u.String())
		})
	}
}

func TestToURLErrors(t *testing.T) {
	var nilTemplate *Template
	_, err := nilTemplate.ToURL()
	assert.ErrorIs(t, err, ErrInvalidURL)

	t.Run("relative", func(t *testing.T) {
		tpl, err := Create("/just/a/path", nil, []Param{{"q", "1"}})
		require.NoError(t, err)
		_, err = tpl.ToURL()
		assert.ErrorIs(t, err, ErrInvalidURL)
		var urlErr *Error
		require.True(t, errors.As(err, &urlErr))
		assert.Equal(t, "/just/a/path?q=1", urlErr.URL)
		assert.Nil(t, urlErr.Unwrap())
	})
	t.Run("no host", func(t *testing.T) {
		tpl, err := Create("mailto:someone", nil, nil)
		require.NoError(t, err)
		_, err = tpl.ToURL()
		assert.ErrorIs(t, err, ErrInvalidURL)
	})
	t.Run("unparseable", func(t *testing.T) {
		tpl, err := Create("http://[::1", nil, nil)
		require.NoError(t, err)
		_, err = tpl.ToURL()
		assert.ErrorIs(t, err, ErrInvalidURL)
		var urlErr *Error
		require.True(t, errors.As(err, &urlErr))
		assert.Error(t, urlErr.Unwrap())
		assert.Contains(t, err.Error(), "http://[::1")
	})
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "", Escape(""))
	assert.Equal(t, "AZaz09-._~", Escape("AZaz09-._~"))
	assert.Equal(t, "a%20b", Escape("a b"))
	assert.Equal(t, "%2B%26%3D%3F%2F%23", Escape("+&=?/#"))
	assert.Equal(t, "%7Bx%7D", Escape("{x}"))
	assert.Equal(t, "%C3%A9", Escape("é"))
	assert.Equal(t, "%25", Escape("%"))
}
