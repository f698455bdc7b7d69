// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package tracing

import (
	"github.com/gogama/courier"
	"github.com/gogama/courier/request"
	"github.com/gogama/courier/response"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the tracer used by Handler.
const TracerName = "github.com/gogama/courier/plugin/tracing"

// Attribute keys set on each span.
const (
	AttrMethod       = attribute.Key("http.request.method")
	AttrURL          = attribute.Key("url.full")
	AttrStatusCode   = attribute.Key("http.response.status_code")
	AttrBodySize     = attribute.Key("http.response.body.size")
	AttrExecutionID  = attribute.Key("courier.execution_id")
	AttrKind         = attribute.Key("courier.kind")
	AttrSocketCode   = attribute.Key("courier.socket_code")
	AttrRequestCode  = attribute.Key("courier.request_code")
	AttrCancelled    = attribute.Key("courier.cancelled")
	AttrElapsedNanos = attribute.Key("courier.elapsed_ns")
)

type spanKey struct{}

// A Handler starts a client span when an attempt begins and ends it
// when the execution ends. The span is a child of any span in the
// context passed to the Executor.
type Handler struct {
	Tracer     trace.Tracer
	Propagator propagation.TextMapPropagator
}

// New returns a Handler which creates spans with a tracer from tp and
// injects the trace context into request headers using prop. A nil tp
// means the global tracer provider. A nil prop means W3C trace context
// and baggage.
func New(tp trace.TracerProvider, prop propagation.TextMapPropagator) *Handler {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if prop == nil {
		prop = propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)
	}
	return &Handler{
		Tracer:     tp.Tracer(TracerName),
		Propagator: prop,
	}
}

// Install adds h to the front of the BeforeAttempt chain of g, so later
// handlers see the span and the injected headers, and to the back of
// the AfterExecutionEnd chain.
func Install(g *courier.HandlerGroup, h *Handler) {
	g.PushFront(courier.BeforeAttempt, h)
	g.PushBack(courier.AfterExecutionEnd, h)
}

// Handle starts a span on BeforeAttempt and ends it on
// AfterExecutionEnd. Other events are ignored. An execution which ends
// before its attempt starts has no span.
func (h *Handler) Handle(evt courier.Event, e *request.Execution) {
	switch evt {
	case courier.BeforeAttempt:
		h.start(e)
	case courier.AfterExecutionEnd:
		h.end(e)
	}
}

func (h *Handler) start(e *request.Execution) {
	ctx, span := h.Tracer.Start(e.Request.Context(), "HTTP "+e.Request.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(e.Start),
		trace.WithAttributes(
			AttrMethod.String(e.Request.Method),
			AttrURL.String(e.Request.URL.Redacted()),
			AttrExecutionID.String(e.ID),
		),
	)
	h.Propagator.Inject(ctx, propagation.HeaderCarrier(e.Request.Header))
	e.Request = e.Request.WithContext(ctx)
	e.SetValue(spanKey{}, span)
}

func (h *Handler) end(e *request.Execution) {
	span, ok := e.Value(spanKey{}).(trace.Span)
	if !ok {
		return
	}

	r := e.Result
	span.SetAttributes(
		AttrKind.String(r.Kind.String()),
		AttrElapsedNanos.Int64(int64(r.Elapsed)),
	)
	switch r.Kind {
	case response.Completed:
		span.SetAttributes(
			AttrStatusCode.Int(r.StatusCode()),
			AttrBodySize.Int(len(r.Body())),
		)
		if r.StatusCode() >= 500 {
			span.SetStatus(codes.Error, r.Status())
		}
	case response.ClientTimeout:
		span.SetAttributes(AttrCancelled.Bool(r.Cancelled))
		span.SetStatus(codes.Error, r.Message())
	default:
		if r.Kind == response.SocketError {
			span.SetAttributes(AttrSocketCode.String(r.Fault.Socket.String()))
		}
		span.SetAttributes(AttrRequestCode.String(r.Fault.Request.String()))
		if r.Fault.Err != nil {
			span.RecordError(r.Fault.Err)
		}
		span.SetStatus(codes.Error, r.Status())
	}

	span.End(trace.WithTimestamp(e.End))
}
