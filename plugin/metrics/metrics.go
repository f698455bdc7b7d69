// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"fmt"
	"strconv"

	"github.com/gogama/courier"
	"github.com/gogama/courier/request"
	"github.com/gogama/courier/response"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// DefaultNamespace is the metric namespace used when none is given.
const DefaultNamespace = "courier"

type inFlightKey struct{}

// Metrics holds the Prometheus metrics for a courier Executor. It is a
// courier.Handler.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseBytes   *prometheus.CounterVec
	InFlight        prometheus.Gauge

	namespace string
}

// New creates the metrics and registers them with reg. If reg is nil,
// prometheus.DefaultRegisterer is used. New panics if the metrics are
// already registered with reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests by method, outcome kind, failure code and status",
			},
			[]string{"method", "kind", "code", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request latency histogram, including body buffering",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~33s
			},
			[]string{"method", "kind"},
		),
		ResponseBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "response_bytes_total",
				Help:      "Total number of response body bytes buffered",
			},
			[]string{"method"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Current number of requests being sent",
			},
		),
		namespace: namespace,
	}
}

// Install adds m to the BeforeAttempt and AfterAttempt chains of g.
func Install(g *courier.HandlerGroup, m *Metrics) {
	g.PushBack(courier.BeforeAttempt, m)
	g.PushBack(courier.AfterAttempt, m)
}

// Handle records the event. Events other than BeforeAttempt and
// AfterAttempt are ignored.
func (m *Metrics) Handle(evt courier.Event, e *request.Execution) {
	switch evt {
	case courier.BeforeAttempt:
		m.InFlight.Inc()
		e.SetValue(inFlightKey{}, true)
	case courier.AfterAttempt:
		if e.Value(inFlightKey{}) == true {
			m.InFlight.Dec()
		}
		m.Record(e.Plan.Method, e.Result)
	}
}

// Record records the outcome of one request.
func (m *Metrics) Record(method string, r *response.Response) {
	kind := r.Kind.String()
	m.RequestsTotal.WithLabelValues(method, kind, Code(r), status(r)).Inc()
	m.RequestDuration.WithLabelValues(method, kind).Observe(r.Elapsed.Seconds())
	if r.Kind == response.Completed {
		m.ResponseBytes.WithLabelValues(method).Add(float64(len(r.Body())))
	}
}

// Code returns the failure code label for r: the socket code of a
// SocketError, the request code of a RequestError, "cancelled" or
// "timeout" for a ClientTimeout, and the empty string otherwise.
func Code(r *response.Response) string {
	switch r.Kind {
	case response.SocketError:
		return r.Fault.Socket.String()
	case response.RequestError:
		return r.Fault.Request.String()
	case response.ClientTimeout:
		if r.Cancelled {
			return "cancelled"
		}
		return "timeout"
	default:
		return ""
	}
}

func status(r *response.Response) string {
	if r.Kind != response.Completed {
		return ""
	}
	return strconv.Itoa(r.StatusCode())
}

// Totals gathers the metrics from g and returns the number of requests
// recorded by m for each response kind.
func (m *Metrics) Totals(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("courier/metrics: gather: %w", err)
	}

	name := prometheus.BuildFQName(m.namespace, "", "requests_total")
	totals := make(map[string]float64)
	for _, family := range families {
		if family.GetName() != name || family.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, metric := range family.GetMetric() {
			totals[labelValue(metric, "kind")] += metric.GetCounter().GetValue()
		}
	}
	return totals, nil
}

func labelValue(metric *dto.Metric, name string) string {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}

// WriteTextfile writes the metrics gathered from g to path in the
// Prometheus text format, for collection by the node exporter textfile
// collector. The file is written atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("courier/metrics: write textfile: %w", err)
	}
	return nil
}
