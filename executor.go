// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package courier

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gogama/courier/fault"
	"github.com/gogama/courier/request"
	"github.com/gogama/courier/response"
	"github.com/gogama/courier/timeout"
	"github.com/gogama/courier/transport"
	"github.com/google/uuid"
)

// An HTTPDoer implements a Do method in the same manner as the Go
// standard library http.Client from the net/http package.
//
// A *transport.Client is an HTTPDoer, and so is an *http.Client.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	Do(r *http.Request) (*http.Response, error)
}

var (
	errNilContext = errors.New("courier: nil context")
	errNilPlan    = errors.New("courier: nil plan")

	// errClientTimeout is the cancellation cause recorded when the
	// per-request timeout ends an attempt.
	errClientTimeout = errors.New("courier: client timeout exceeded")
)

// An Executor sends HTTP request plans and classifies every outcome
// into a response.Response. Its zero value is a valid configuration.
//
// The zero value Executor lazily builds a transport.Client from
// transport.DefaultConfig as its HTTPDoer, uses timeout.DefaultPolicy
// as its timeout policy, and has no event handlers.
//
// An Executor's HTTPDoer holds pooled connections, so Executors should
// be created once and reused. Executor is safe for concurrent use by
// multiple goroutines.
//
// Each Send makes exactly one attempt. Network faults, timeouts and
// cancellation never surface as Go errors: they are reported as the
// ClientTimeout, SocketError or RequestError variants of the returned
// response. The error return is reserved for invalid arguments.
type Executor struct {
	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses.
	//
	// If HTTPDoer is nil, a transport.Client built from the default
	// transport configuration is used.
	HTTPDoer HTTPDoer
	// TimeoutPolicy specifies the per-request client timeout.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur while a plan is sent.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
	// MaxResponseBufferSize limits the number of response body bytes
	// buffered per request. A larger body results in a RequestError
	// with code ConfigurationLimitExceeded.
	//
	// If MaxResponseBufferSize is zero or negative,
	// transport.DefaultMaxResponseBufferSize is used.
	MaxResponseBufferSize int64

	once        sync.Once
	defaultDoer HTTPDoer
}

// New returns an Executor whose HTTPDoer is a transport.Client built
// from cfg. The response buffer size and pooled connection lifetime in
// cfg are fixed for the life of the Executor.
func New(cfg transport.Config) (*Executor, error) {
	c, err := transport.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Executor{
		HTTPDoer:              c,
		MaxResponseBufferSize: c.MaxResponseBufferSize,
	}, nil
}

// Send sends the plan p and returns its classified outcome.
//
// The attempt ends when the first of the following happens: a response
// is received and its body buffered; the transport fails; the timeout
// chosen by the timeout policy elapses; or ctx, or the plan's own
// context, is done. A timeout or cancellation gives a ClientTimeout
// response whose Cancelled field tells the two apart.
//
// Send returns a non-nil error, and makes no network request, if ctx
// or p is nil, if p fails validation, or if a header field in p is not
// valid on the wire. Otherwise the returned response is never nil and
// the error is always nil, regardless of HTTP status code.
func (x *Executor) Send(ctx context.Context, p *request.Plan) (*response.Response, error) {
	if ctx == nil {
		return nil, errNilContext
	}
	if p == nil {
		return nil, errNilPlan
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	d := x.timeoutPolicy().Timeout(p)
	ctx, stop := mergeContext(ctx, p.Context())
	defer stop()
	var attemptCtx context.Context
	var cancel context.CancelFunc
	if d == timeout.Never {
		attemptCtx, cancel = context.WithCancel(ctx)
	} else {
		attemptCtx, cancel = context.WithTimeoutCause(ctx, d, errClientTimeout)
	}
	defer cancel()

	req, err := transport.ConvertRequest(attemptCtx, p)
	if err != nil {
		return nil, err
	}

	handlers := x.Handlers

	e := &request.Execution{
		Plan: p,
		ID:   uuid.NewString(),
	}
	handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()
	e.Request = req

	if err := attemptCtx.Err(); err != nil {
		e.Err = urlErrorWrap(p, err)
	} else {
		handlers.run(BeforeAttempt, e)
		x.sendAndReceive(e, handlers)
	}

	e.End = time.Now()
	elapsed := e.End.Sub(e.Start)
	if elapsed < time.Nanosecond {
		elapsed = time.Nanosecond
	}

	if e.Err == nil {
		e.Result, err = transport.ConvertResponse(e.Response, e.Body, elapsed)
		if err != nil {
			e.Err = urlErrorWrap(p, err)
			e.Result = response.NewRequestError(elapsed, response.Unknown, e.Err)
		}
	} else {
		cancelled := context.Cause(attemptCtx) != errClientTimeout
		e.Result = fault.Classify(attemptCtx, e.Err).Response(elapsed, e.Err, cancelled)
	}

	if e.Result.Kind == response.ClientTimeout {
		handlers.run(AfterClientTimeout, e)
	}
	handlers.run(AfterAttempt, e)
	handlers.run(AfterExecutionEnd, e)
	return e.Result, nil
}

func (x *Executor) sendAndReceive(e *request.Execution, handlers *HandlerGroup) {
	var err error
	e.Response, err = x.doer().Do(e.Request)
	if err != nil {
		e.Err = urlErrorWrap(e.Plan, err)
		return
	}

	defer func() {
		_ = e.Response.Body.Close()
	}()
	handlers.run(BeforeReadBody, e)
	e.Body, err = transport.ReadBody(e.Response, x.MaxResponseBufferSize)
	if err != nil {
		e.Err = urlErrorWrap(e.Plan, err)
	}
}

// Get issues a GET to the specified URL, using the same policies
// followed by Send.
//
// To make a request plan with custom headers, use request.NewPlan and
// Executor.Send.
func (x *Executor) Get(ctx context.Context, url string) (*response.Response, error) {
	return Get(ctx, x, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Send.
func (x *Executor) Head(ctx context.Context, url string) (*response.Response, error) {
	return Head(ctx, x, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Send.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.BodyBytes, namely: string; []byte;
// io.Reader; and io.ReadCloser.
func (x *Executor) Post(ctx context.Context, url, contentType string, body interface{}) (*response.Response, error) {
	return Post(ctx, x, url, contentType, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values URL-encoded as the request body.
func (x *Executor) PostForm(ctx context.Context, url string, data url.Values) (*response.Response, error) {
	return PostForm(ctx, x, url, data)
}

// CloseIdleConnections invokes the same method on the executor's
// underlying HTTPDoer. If the HTTPDoer has no CloseIdleConnections
// method, this method does nothing.
func (x *Executor) CloseIdleConnections() {
	if ic, ok := x.doer().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (x *Executor) doer() HTTPDoer {
	if x.HTTPDoer != nil {
		return x.HTTPDoer
	}

	x.once.Do(func() {
		c, err := transport.NewClient(transport.DefaultConfig())
		if err != nil {
			panic("courier: default transport: " + err.Error())
		}
		x.defaultDoer = c
	})
	return x.defaultDoer
}

func (x *Executor) timeoutPolicy() timeout.Policy {
	if x.TimeoutPolicy == nil {
		return timeout.DefaultPolicy
	}
	return x.TimeoutPolicy
}

// mergeContext returns a context which is done when either ctx or
// planCtx is done.
func mergeContext(ctx, planCtx context.Context) (context.Context, func()) {
	if planCtx == nil || planCtx.Done() == nil {
		return ctx, func() {}
	}

	merged, cancel := context.WithCancelCause(ctx)
	stop := context.AfterFunc(planCtx, func() {
		cancel(context.Cause(planCtx))
	})
	return merged, func() {
		stop()
		cancel(context.Canceled)
	}
}

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: err,
	}
}

// urlErrorOp matches the Op of the *url.Error values net/http returns.
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
