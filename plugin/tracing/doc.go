// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package tracing creates OpenTelemetry client spans for the requests
// sent by a courier Executor and propagates the trace context to the
// server in the request headers.
//
// NewProvider builds an SDK tracer provider which exports spans to an
// OTLP/HTTP collector.
package tracing
