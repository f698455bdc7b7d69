// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package header

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	t.Run("Add and Get", func(t *testing.T) {
		var l List
		assert.Equal(t, "", l.Get("Accept"))
		l.Add("Accept", "text/plain")
		l.Add("accept", "application/json")
		l.Add("X-Foo", "bar")
		assert.Equal(t, "text/plain", l.Get("ACCEPT"))
		assert.Equal(t, []string{"text/plain", "application/json"}, l.Values("Accept"))
		assert.Nil(t, l.Values("Missing"))
		assert.Len(t, l, 3)
	})
	t.Run("Set and Del", func(t *testing.T) {
		l := List{{"A", "1"}, {"B", "2"}, {"a", "3"}}
		l.Set("a", "4")
		assert.Equal(t, List{{"B", "2"}, {"a", "4"}}, l)
		l.Del("b")
		assert.Equal(t, List{{"a", "4"}}, l)
		var empty List
		empty.Del("x")
		assert.Empty(t, empty)
	})
	t.Run("Del leaves copies alone", func(t *testing.T) {
		l := List{{"A", "1"}, {"B", "2"}, {"C", "3"}}
		c := l
		c.Del("a")
		assert.Equal(t, List{{"B", "2"}, {"C", "3"}}, c)
		assert.Equal(t, List{{"A", "1"}, {"B", "2"}, {"C", "3"}}, l)
	})
	t.Run("Clone", func(t *testing.T) {
		assert.Nil(t, List(nil).Clone())
		l := List{{"A", "1"}}
		c := l.Clone()
		c[0].Value = "2"
		assert.Equal(t, "1", l[0].Value)
	})
	t.Run("HTTP", func(t *testing.T) {
		l := List{{"x-multi", "1"}, {"Other", "o"}, {"X-Multi", "2"}}
		h := l.HTTP()
		assert.Equal(t, []string{"1", "2"}, h.Values("X-Multi"))
		assert.Equal(t, "o", h.Get("Other"))
	})
}

func TestFlatten(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		l := Flatten(nil)
		require.NotNil(t, l)
		assert.Empty(t, l)
	})
	t.Run("joins multiple values", func(t *testing.T) {
		h := http.Header{}
		h.Add("Vary", "Accept")
		h.Add("Vary", "Accept-Encoding")
		h.Set("Content-Type", "text/plain")
		h.Set("Cache-Control", "no-cache")
		l := Flatten(h)
		assert.Equal(t, List{
			{"Cache-Control", "no-cache"},
			{"Content-Type", "text/plain"},
			{"Vary", "Accept,Accept-Encoding"},
		}, l)
	})
}
