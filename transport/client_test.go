// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogama/courier/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := NewClient(Config{})
		require.NoError(t, err)

		assert.Equal(t, DefaultMaxResponseBufferSize, c.MaxResponseBufferSize)
		assert.Zero(t, c.HTTP.Timeout)
		require.IsType(t, &http.Transport{}, c.HTTP.Transport)
		tr := c.HTTP.Transport.(*http.Transport)
		assert.Equal(t, defaultIdleConnTimeout, tr.IdleConnTimeout)
		assert.NotNil(t, tr.DialContext)
	})
	t.Run("short lifetime bounds idle timeout", func(t *testing.T) {
		c, err := NewClient(Config{PooledConnectionLifetime: 10 * time.Second})
		require.NoError(t, err)

		tr := c.HTTP.Transport.(*http.Transport)
		assert.Equal(t, 10*time.Second, tr.IdleConnTimeout)
	})
	t.Run("http2 disabled", func(t *testing.T) {
		c, err := NewClient(Config{DisableHTTP2: true})
		require.NoError(t, err)

		tr := c.HTTP.Transport.(*http.Transport)
		assert.NotNil(t, tr.TLSNextProto)
		assert.Empty(t, tr.TLSNextProto)
	})
	t.Run("invalid", func(t *testing.T) {
		c, err := NewClient(Config{MaxResponseBufferSize: -5})
		assert.Nil(t, c)
		assert.Error(t, err)
	})
}

func TestClientDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Path", r.URL.Path)
		_, _ = io.WriteString(w, "pong")
	}))
	defer server.Close()

	born := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := NewClient(Config{PooledConnectionLifetime: time.Minute})
	require.NoError(t, err)
	defer c.CloseIdleConnections()
	now := born
	c.Pool.now = func() time.Time { return now }

	var dials int
	tr := c.HTTP.Transport.(*http.Transport)
	dial := tr.DialContext
	tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		dials++
		return dial(ctx, network, addr)
	}

	get := func() {
		p, err := request.NewPlan("GET", server.URL+"/ping", nil)
		require.NoError(t, err)
		req, err := ConvertRequest(context.Background(), p)
		require.NoError(t, err)

		resp, err := c.Do(req)
		require.NoError(t, err)
		b, err := ReadBody(resp, c.MaxResponseBufferSize)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		assert.Equal(t, "pong", string(b))
		assert.Equal(t, "/ping", resp.Header.Get("X-Path"))
	}

	get()
	get()
	assert.Equal(t, 1, dials, "young connection is reused")
	assert.Equal(t, int64(0), c.Pool.Retired())

	now = born.Add(time.Hour)
	get()
	assert.Equal(t, int64(1), c.Pool.Retired())

	now = born.Add(time.Hour + time.Second)
	get()
	assert.Equal(t, 2, dials, "retired connection is replaced")
}

func TestClientDoError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := NewClient(Config{})
	require.NoError(t, err)

	p, err := request.NewPlan("GET", url, nil)
	require.NoError(t, err)
	req, err := ConvertRequest(context.Background(), p)
	require.NoError(t, err)

	resp, err := c.Do(req)
	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestClientHTTP2Lifetime(t *testing.T) {
	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }
	defer unblock()

	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/stream" {
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			<-release
			_, _ = io.WriteString(w, "done")
			return
		}
		_, _ = io.WriteString(w, "pong")
	}))
	server.EnableHTTP2 = true
	server.StartTLS()
	defer server.Close()

	born := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := NewClient(Config{PooledConnectionLifetime: time.Minute, InsecureSkipVerify: true})
	require.NoError(t, err)
	defer c.CloseIdleConnections()
	var now atomic.Int64
	now.Store(born.UnixNano())
	c.Pool.now = func() time.Time { return time.Unix(0, now.Load()) }

	var dials atomic.Int32
	tr := c.HTTP.Transport.(*http.Transport)
	dial := tr.DialContext
	tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		dials.Add(1)
		return dial(ctx, network, addr)
	}

	do := func(path string) *http.Response {
		req, err := http.NewRequest("GET", server.URL+path, nil)
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		assert.Equal(t, "HTTP/2.0", resp.Proto)
		return resp
	}
	get := func(path string) string {
		resp := do(path)
		defer func() { _ = resp.Body.Close() }()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(b)
	}

	assert.Equal(t, "pong", get("/ping"))
	assert.Equal(t, "pong", get("/ping"))
	assert.Equal(t, int32(1), dials.Load(), "young connection is reused")
	assert.Equal(t, int64(0), c.Pool.Retired())

	stream := do("/stream")
	defer func() { _ = stream.Body.Close() }()

	now.Add(int64(time.Hour))
	assert.Equal(t, "pong", get("/ping"))
	assert.Equal(t, int32(2), dials.Load(), "busy expired connection is not reused")
	assert.Equal(t, int64(1), c.Pool.Retired())

	unblock()
	b, err := io.ReadAll(stream.Body)
	require.NoError(t, err, "stream on a retired connection finishes")
	assert.Equal(t, "done", string(b))

	assert.Equal(t, "pong", get("/ping"))
	assert.Equal(t, int32(2), dials.Load(), "replacement connection is reused")
}
