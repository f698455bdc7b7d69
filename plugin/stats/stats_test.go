// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gogama/courier"
	"github.com/gogama/courier/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completed(elapsed time.Duration, status int) *response.Response {
	return response.NewCompleted(elapsed, &response.Exchange{StatusCode: status})
}

func TestCollector(t *testing.T) {
	c := New()
	clock := time.Unix(1700000000, 0)
	c.now = func() time.Time {
		clock = clock.Add(10 * time.Millisecond)
		return clock
	}

	for i := 1; i <= 100; i++ {
		c.Record(completed(time.Duration(i)*time.Millisecond, 200))
	}
	c.Record(completed(time.Millisecond, 503))
	c.Record(response.NewClientTimeout(2*time.Second, false))
	c.Record(response.NewSocketError(0, response.ConnectionRefused, response.ConnectionError, nil))

	s := c.Summary()

	assert.Equal(t, int64(103), s.Total.Count)
	assert.Equal(t, int64(101), s.ByKind[response.Completed].Count)
	assert.Equal(t, int64(1), s.ByKind[response.ClientTimeout].Count)
	assert.Equal(t, int64(1), s.ByKind[response.SocketError].Count)
	assert.NotContains(t, s.ByKind, response.RequestError)
	assert.Equal(t, map[int]int64{200: 100, 503: 1}, s.Statuses)

	completedLatency := s.ByKind[response.Completed]
	assert.Equal(t, time.Millisecond, completedLatency.Min)
	assert.InDelta(t, float64(50*time.Millisecond), float64(completedLatency.P50), float64(100*time.Microsecond))
	assert.InDelta(t, float64(90*time.Millisecond), float64(completedLatency.P90), float64(100*time.Microsecond))
	assert.InDelta(t, float64(99*time.Millisecond), float64(completedLatency.P99), float64(100*time.Microsecond))
	assert.InDelta(t, float64(100*time.Millisecond), float64(completedLatency.Max), float64(100*time.Microsecond))
	assert.InDelta(t, float64(2*time.Second), float64(s.Total.Max), float64(2*time.Millisecond))
	assert.Equal(t, time.Microsecond, s.ByKind[response.SocketError].Min)

	assert.Equal(t, 102*10*time.Millisecond, s.Span)
	assert.InDelta(t, 100.0, s.Rate(), 1e-9)

	t.Run("reset", func(t *testing.T) {
		c.Reset()
		s := c.Summary()
		assert.Equal(t, int64(0), s.Total.Count)
		assert.Empty(t, s.ByKind)
		assert.Empty(t, s.Statuses)
		assert.Zero(t, s.Rate())
	})
}

func TestCollectorConcurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Record(completed(time.Millisecond, 200))
				_ = c.Summary()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), c.Summary().Total.Count)
}

func TestSummaryWrite(t *testing.T) {
	c := New()
	c.Record(completed(time.Millisecond, 200))
	c.Record(response.NewClientTimeout(time.Second, true))
	var buf bytes.Buffer

	require.NoError(t, c.Summary().Write(&buf))

	out := buf.String()
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "Completed")
	assert.Contains(t, out, "ClientTimeout")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "STATUS")
	assert.NotContains(t, out, "SocketError")
}

func TestInstall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()
	c := New()
	g := &courier.HandlerGroup{}
	Install(g, c)
	x := &courier.Executor{HTTPDoer: server.Client(), Handlers: g}

	for i := 0; i < 3; i++ {
		_, err := x.Get(context.Background(), server.URL)
		require.NoError(t, err)
	}

	s := c.Summary()
	assert.Equal(t, int64(3), s.ByKind[response.Completed].Count)
	assert.Equal(t, map[int]int64{204: 3}, s.Statuses)
}
