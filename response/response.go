// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package response

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gogama/courier/header"
)

const negativeElapsedMsg = "courier/response: negative elapsed time"

// A Kind identifies which variant of the Response union is populated.
type Kind int

const (
	// Completed means the HTTP exchange finished and a response was
	// received. The status code may indicate an application error
	// (4XX or 5XX); that is not an error at this layer.
	Completed Kind = iota
	// ClientTimeout means the attempt was abandoned because the
	// per-request timeout elapsed, or because the caller cancelled it,
	// before a usable response was received.
	ClientTimeout
	// SocketError means the transport failed below the HTTP layer, for
	// example because the connection was refused or reset, or because
	// the host name did not resolve.
	SocketError
	// RequestError means the transport reported a failure which is not
	// a socket error, for example a malformed response.
	RequestError
)

var kindNames = []string{
	"Completed",
	"ClientTimeout",
	"SocketError",
	"RequestError",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// A Response is the outcome of one request attempt. It is a tagged
// union: Kind says which of the variant-specific fields is populated.
//
//	Kind           Populated
//	Completed      Exchange
//	ClientTimeout  Cancelled (may be false)
//	SocketError    Fault, with a non-zero Fault.Socket
//	RequestError   Fault
//
// Elapsed is populated in every variant. Use the constructors in this
// package to build a Response; they maintain the invariants above.
type Response struct {
	// Kind selects the populated variant.
	Kind Kind

	// Elapsed is the wall-clock time spent on the attempt. It is never
	// negative.
	Elapsed time.Duration

	// Exchange describes the HTTP response. It is non-nil if and only
	// if Kind is Completed.
	Exchange *Exchange

	// Fault describes a transport failure. It is non-nil if and only
	// if Kind is SocketError or RequestError.
	Fault *Fault

	// Cancelled is meaningful only when Kind is ClientTimeout. It
	// reports whether the attempt was ended by the caller's
	// cancellation signal rather than by the per-request timeout.
	Cancelled bool
}

// An Exchange holds the parts of a completed HTTP response.
type Exchange struct {
	StatusCode int
	// Reason is the reason phrase from the status line, for example
	// "Not Found". It may be empty.
	Reason     string
	Proto      string
	ProtoMajor int
	ProtoMinor int
	Header     header.List
	Trailer    header.List
	Body       []byte
}

// A Fault holds the classification of a transport failure.
type Fault struct {
	// Socket is the socket error code. It is zero (SocketNone) for a
	// RequestError.
	Socket SocketCode
	// Request is the transport-level classification of the failure.
	Request RequestCode
	// Err is the underlying error, if known.
	Err error
}

// NewCompleted returns a Completed response. It panics if elapsed is
// negative or x is nil.
func NewCompleted(elapsed time.Duration, x *Exchange) *Response {
	checkElapsed(elapsed)
	if x == nil {
		panic("courier/response: nil exchange")
	}
	return &Response{Kind: Completed, Elapsed: elapsed, Exchange: x}
}

// NewClientTimeout returns a ClientTimeout response. It panics if
// elapsed is negative.
func NewClientTimeout(elapsed time.Duration, cancelled bool) *Response {
	checkElapsed(elapsed)
	return &Response{Kind: ClientTimeout, Elapsed: elapsed, Cancelled: cancelled}
}

// NewSocketError returns a SocketError response. A zero socket code is
// replaced with SocketOther so that a socket error always carries a
// code. It panics if elapsed is negative.
func NewSocketError(elapsed time.Duration, socket SocketCode, request RequestCode, err error) *Response {
	checkElapsed(elapsed)
	if socket == SocketNone {
		socket = SocketOther
	}
	return &Response{
		Kind:    SocketError,
		Elapsed: elapsed,
		Fault:   &Fault{Socket: socket, Request: request, Err: err},
	}
}

// NewRequestError returns a RequestError response. It panics if elapsed
// is negative.
func NewRequestError(elapsed time.Duration, request RequestCode, err error) *Response {
	checkElapsed(elapsed)
	return &Response{
		Kind:    RequestError,
		Elapsed: elapsed,
		Fault:   &Fault{Request: request, Err: err},
	}
}

func checkElapsed(elapsed time.Duration) {
	if elapsed < 0 {
		panic(negativeElapsedMsg)
	}
}

// ExceededClientTimeout reports whether the response is the
// ClientTimeout variant.
func (r *Response) ExceededClientTimeout() bool {
	return r.Kind == ClientTimeout
}

// StatusCode returns the HTTP status code of a Completed response, or
// zero for any other variant.
func (r *Response) StatusCode() int {
	if r.Exchange == nil {
		return 0
	}
	return r.Exchange.StatusCode
}

// Body returns the buffered body of a Completed response, or nil for
// any other variant.
func (r *Response) Body() []byte {
	if r.Exchange == nil {
		return nil
	}
	return r.Exchange.Body
}

// Status returns a one-line summary of the response: the status code
// and reason phrase of a Completed response, or the kind and code of a
// failure.
func (r *Response) Status() string {
	switch r.Kind {
	case Completed:
		reason := r.Exchange.Reason
		if reason == "" {
			reason = http.StatusText(r.Exchange.StatusCode)
		}
		if reason == "" {
			return fmt.Sprintf("%d", r.Exchange.StatusCode)
		}
		return fmt.Sprintf("%d %s", r.Exchange.StatusCode, reason)
	case ClientTimeout:
		if r.Cancelled {
			return "ClientTimeout (cancelled)"
		}
		return "ClientTimeout"
	case SocketError:
		return fmt.Sprintf("SocketError %s", r.Fault.Socket)
	case RequestError:
		return fmt.Sprintf("RequestError %s", r.Fault.Request)
	default:
		return r.Kind.String()
	}
}

// Message returns a human-readable description of a failure, or the
// empty string for a Completed response.
func (r *Response) Message() string {
	switch r.Kind {
	case ClientTimeout:
		if r.Cancelled {
			return "request cancelled after " + r.Elapsed.String()
		}
		return "client timeout exceeded after " + r.Elapsed.String()
	case SocketError, RequestError:
		msg := r.Status()
		if r.Fault.Err != nil {
			msg += ": " + r.Fault.Err.Error()
		}
		return msg
	default:
		return ""
	}
}
