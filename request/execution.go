// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/gogama/courier/response"
)

// An Execution represents the state of a single Plan execution.
//
// When a plan is sent, an Execution is created for it and handed to
// each event handler as the attempt progresses. When the attempt is
// over, the Execution's Result holds the classified outcome that the
// executor returns to the caller.
//
// Event handlers may set values on an Execution using its SetValue
// method and read them back using the Value method. They should treat
// the exported fields as read-only, with the limited exception of
// making reasonable changes to the http.Request before it is sent (for
// example, adding tracing or signing headers).
type Execution struct {
	// Plan specifies the request plan being executed. It is never nil.
	Plan *Plan

	// ID uniquely identifies the execution. It is assigned before the
	// first event fires.
	ID string

	// Start is the time at which the attempt started. It is the zero
	// time until then.
	Start time.Time

	// End is the time at which the attempt ended. It is the zero time
	// until then.
	End time.Time

	// Request is the HTTP request sent, or about to be sent, for the
	// plan. It is nil if the attempt never got as far as sending.
	Request *http.Request

	// Response is the HTTP response received. It is nil if the attempt
	// ended in an error before response headers were received.
	Response *http.Response

	// Err is the error the attempt ended with, if any. Whenever Err is
	// non-nil, it has the type *url.Error.
	//
	// Note that both Response and Err may be non-nil if the error
	// occurred while reading the response body.
	Err error

	// Body is the response body read during the attempt. It may be
	// partial if Err is non-nil.
	Body []byte

	// Result is the classified outcome of the attempt. It is nil until
	// the attempt has ended, and never nil afterwards.
	Result *response.Response

	// data holds arbitrary handler data; see SetValue and Value.
	data context.Context
}

// StatusCode returns the status code of the HTTP response received
// during the execution, or 0 if there is none.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the headers of the HTTP response received during the
// execution. If there is no HTTP response, the nil header is returned,
// which is safe for read-only operations.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		return nil
	}

	return e.Response.Header
}

// Duration returns the duration of the execution.
//
// If the execution has not yet started, the duration is zero. If the
// execution has ended, the duration is End minus Start. Otherwise, it
// is the current time minus Start.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended indicates whether the execution has ended. Once it has ended,
// End is non-zero and Result is non-nil.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout indicates whether the execution ended as a client timeout,
// either because the per-request timeout elapsed or because the caller
// cancelled it.
func (e *Execution) Timeout() bool {
	return e.Result != nil && e.Result.ExceededClientTimeout()
}

// SetValue allows event handlers to store arbitrary data in the
// execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue: it may not be nil, it must be comparable, and it
// should not be of a built-in type, to avoid collisions between
// handlers.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
