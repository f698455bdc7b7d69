// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/gogama/courier"
	"github.com/gogama/courier/request"
	"github.com/gogama/courier/response"
)

// Latencies are recorded in microseconds, from 1µs to one hour, with
// three significant digits.
const (
	minMicros = 1
	maxMicros = int64(time.Hour / time.Microsecond)
	sigFigs   = 3
)

// A Collector records the outcome and elapsed time of each request. It
// is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	all      *hdrhistogram.Histogram
	byKind   map[response.Kind]*hdrhistogram.Histogram
	statuses map[int]int64
	first    time.Time
	last     time.Time
	now      func() time.Time
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{
		all:      hdrhistogram.New(minMicros, maxMicros, sigFigs),
		byKind:   make(map[response.Kind]*hdrhistogram.Histogram),
		statuses: make(map[int]int64),
		now:      time.Now,
	}
}

// Install adds c to the AfterAttempt chain of g.
func Install(g *courier.HandlerGroup, c *Collector) {
	g.PushBack(courier.AfterAttempt, c)
}

// Handle records the result of an attempt on AfterAttempt.
func (c *Collector) Handle(evt courier.Event, e *request.Execution) {
	if evt == courier.AfterAttempt {
		c.Record(e.Result)
	}
}

// Record adds r to the collected statistics.
func (c *Collector) Record(r *response.Response) {
	us := r.Elapsed.Microseconds()
	if us < minMicros {
		us = minMicros
	} else if us > maxMicros {
		us = maxMicros
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.first.IsZero() {
		c.first = now
	}
	c.last = now

	_ = c.all.RecordValue(us)
	h := c.byKind[r.Kind]
	if h == nil {
		h = hdrhistogram.New(minMicros, maxMicros, sigFigs)
		c.byKind[r.Kind] = h
	}
	_ = h.RecordValue(us)
	if r.Kind == response.Completed {
		c.statuses[r.StatusCode()]++
	}
}

// Latency summarizes a latency distribution.
type Latency struct {
	Count int64
	Min   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
}

func latencyOf(h *hdrhistogram.Histogram) Latency {
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return Latency{
		Count: h.TotalCount(),
		Min:   us(h.Min()),
		Mean:  time.Duration(h.Mean() * float64(time.Microsecond)),
		P50:   us(h.ValueAtQuantile(50)),
		P90:   us(h.ValueAtQuantile(90)),
		P99:   us(h.ValueAtQuantile(99)),
		Max:   us(h.Max()),
	}
}

// A Summary is a snapshot of a Collector.
type Summary struct {
	Total    Latency
	ByKind   map[response.Kind]Latency
	Statuses map[int]int64
	// Span is the time between the first and last recorded request.
	Span time.Duration
}

// Rate returns the number of requests per second over the span of the
// summary, or zero if fewer than two requests were recorded.
func (s Summary) Rate() float64 {
	if s.Total.Count < 2 || s.Span <= 0 {
		return 0
	}
	return float64(s.Total.Count-1) / s.Span.Seconds()
}

// Summary returns a snapshot of the statistics collected so far.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{
		Total:    latencyOf(c.all),
		ByKind:   make(map[response.Kind]Latency, len(c.byKind)),
		Statuses: make(map[int]int64, len(c.statuses)),
		Span:     c.last.Sub(c.first),
	}
	for kind, h := range c.byKind {
		s.ByKind[kind] = latencyOf(h)
	}
	for code, n := range c.statuses {
		s.Statuses[code] = n
	}
	return s
}

// Reset discards everything collected so far.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.all.Reset()
	c.byKind = make(map[response.Kind]*hdrhistogram.Histogram)
	c.statuses = make(map[int]int64)
	c.first, c.last = time.Time{}, time.Time{}
}

// Write writes s to w as an aligned text table.
func (s Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCOUNT\tMIN\tMEAN\tP50\tP90\tP99\tMAX")
	row := func(name string, l Latency) {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			name, l.Count, l.Min, l.Mean, l.P50, l.P90, l.P99, l.Max)
	}
	for _, kind := range []response.Kind{response.Completed, response.ClientTimeout, response.SocketError, response.RequestError} {
		if l, ok := s.ByKind[kind]; ok {
			row(kind.String(), l)
		}
	}
	row("Total", s.Total)

	if len(s.Statuses) > 0 {
		codes := make([]int, 0, len(s.Statuses))
		for code := range s.Statuses {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "STATUS\tCOUNT")
		for _, code := range codes {
			fmt.Fprintf(tw, "%d\t%d\n", code, s.Statuses[code])
		}
	}
	if rate := s.Rate(); rate > 0 {
		fmt.Fprintf(tw, "\nRATE\t%.1f/s\n", rate)
	}
	return tw.Flush()
}
