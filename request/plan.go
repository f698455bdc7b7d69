// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	urlpkg "net/url"
	"strings"
	"time"

	"github.com/gogama/courier/header"
	"github.com/gogama/courier/urltemplate"
)

const (
	nilCtxMsg = "courier/request: nil context"
)

var (
	// ErrInvalidMethod indicates a method other than one of the nine
	// standard HTTP methods.
	ErrInvalidMethod = errors.New("courier/request: invalid method")
	// ErrInvalidURL indicates a missing URL, or one which is not
	// absolute or has no host.
	ErrInvalidURL = errors.New("courier/request: invalid URL")
	// ErrNegativeTimeout indicates a plan timeout less than zero.
	ErrNegativeTimeout = errors.New("courier/request: negative timeout")
)

var methods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodTrace,
	http.MethodHead,
	http.MethodConnect,
	http.MethodOptions,
}

// Methods returns the HTTP methods a Plan may use.
func Methods() []string {
	ms := make([]string, len(methods))
	copy(ms, methods)
	return ms
}

// ValidMethod reports whether method is one of the nine standard HTTP
// methods. The comparison is case-sensitive, as HTTP methods are.
func ValidMethod(method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

// A Plan describes one logical HTTP request for execution by an
// executor.
//
// The field structure of a Plan mirrors the client-side fields of
// http.Request, with two differences. Header is an ordered list of
// fields rather than a map, so that the order and multiplicity of the
// fields the caller asked for is preserved. And Body is a pre-buffered
// []byte, because the executor buffers responses rather than streaming
// them and treats requests the same way.
//
// A Plan also carries a per-request Timeout and a context. The timeout
// bounds the attempt; the context lets the caller cancel it. Whichever
// fires first ends the attempt.
//
// A Plan should not be modified once it has been handed to an executor.
type Plan struct {
	// Method specifies the HTTP method. An empty string means GET.
	Method string

	// URL specifies the absolute URL to access.
	URL *urlpkg.URL

	// Header contains the request header fields to send, in order.
	Header header.List

	// Body is the pre-buffered request body. A nil or empty body
	// means no body is sent.
	Body []byte

	// Timeout is the client-level timeout for the request attempt.
	// Zero means the executor's timeout policy decides, which by
	// default gives one minute. Use timeout.Never to disable the
	// client-level timeout entirely. Negative values are invalid.
	//
	// The client-level timeout is distinct from I/O timeouts
	// configured on the transport, such as the dial timeout.
	Timeout time.Duration

	// Host optionally overrides the Host header to send. If empty,
	// the value of URL.Host is sent.
	Host string

	// Close asks the transport to close the connection after the
	// response has been read, instead of returning it to the pool.
	Close bool

	// ctx lets the caller cancel the attempt. It should only be
	// modified by copying the whole Plan using WithContext.
	ctx context.Context
}

// NewPlan wraps NewPlanWithContext using the background context.
func NewPlan(method, url string, body interface{}) (*Plan, error) {
	return NewPlanWithContext(context.Background(), method, url, body)
}

// NewPlanWithContext returns a new Plan given a method, URL, and
// optional body.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser. If body is an io.Reader, it is
// read to the end and buffered. If body is an io.ReadCloser, it is
// closed after buffering.
func NewPlanWithContext(ctx context.Context, method, url string, body interface{}) (*Plan, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	return newPlan(ctx, method, u, body)
}

// NewTemplatePlan wraps NewTemplatePlanWithContext using the
// background context.
func NewTemplatePlan(method string, tpl *urltemplate.Template, body interface{}) (*Plan, error) {
	return NewTemplatePlanWithContext(context.Background(), method, tpl, body)
}

// NewTemplatePlanWithContext returns a new Plan whose URL is the
// resolved form of the template tpl. It returns the error from
// tpl.ToURL if the template does not resolve to a valid absolute URL.
func NewTemplatePlanWithContext(ctx context.Context, method string, tpl *urltemplate.Template, body interface{}) (*Plan, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	u, err := tpl.ToURL()
	if err != nil {
		return nil, err
	}
	return newPlan(ctx, method, u, body)
}

func newPlan(ctx context.Context, method string, u *urlpkg.URL, body interface{}) (*Plan, error) {
	if method == "" {
		method = http.MethodGet
	}
	if !ValidMethod(method) {
		return nil, fmt.Errorf("%w %q", ErrInvalidMethod, method)
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Plan{
		ctx:    ctx,
		Method: method,
		URL:    u,
		Body:   b,
		Host:   u.Host,
	}, nil
}

// Validate checks the preconditions an executor places on a Plan: a
// standard method, an absolute URL with a host, and a non-negative
// timeout. Header fields are validated when the plan is converted into
// an http.Request.
func (p *Plan) Validate() error {
	method := p.Method
	if method == "" {
		method = http.MethodGet
	}
	if !ValidMethod(method) {
		return fmt.Errorf("%w %q", ErrInvalidMethod, p.Method)
	}
	if p.URL == nil {
		return fmt.Errorf("%w: nil URL", ErrInvalidURL)
	}
	if !p.URL.IsAbs() || p.URL.Host == "" {
		return fmt.Errorf("%w %q: not absolute", ErrInvalidURL, p.URL.String())
	}
	if p.Timeout < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeTimeout, p.Timeout)
	}
	return nil
}

// Context returns the plan's context. The returned context is always
// non-nil; it defaults to the background context. To change the
// context, use WithContext.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a copy of p with its context changed to ctx,
// which must be non-nil. The copy has its own header list; the body and
// URL are shared.
//
// Cancelling the context ends an in-flight attempt, which is then
// reported as a client timeout.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	p2 := new(Plan)
	*p2 = *p
	p2.Header = p.Header.Clone()
	p2.ctx = ctx
	return p2
}

// AddCookie adds a cookie to the request plan. Per RFC 6265 section
// 5.4, AddCookie does not attach more than one Cookie header field, so
// all cookies are written into the same field separated by semicolons.
func (p *Plan) AddCookie(c *http.Cookie) {
	c2 := &http.Cookie{Name: c.Name, Value: c.Value}
	s := c2.String()
	if h := p.Header.Get("Cookie"); h != "" {
		p.Header.Set("Cookie", h+"; "+s)
	} else {
		p.Header.Set("Cookie", s)
	}
}

// SetBasicAuth sets the plan's Authorization header to use HTTP Basic
// Authentication with the provided username and password.
//
// With HTTP Basic Authentication the provided username and password
// are not encrypted.
func (p *Plan) SetBasicAuth(username, password string) {
	p.Header.Set("Authorization", "Basic "+basicAuth(username, password))
}

// See RFC 7617, section 2. The credentials are not URL-encoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort strips the empty port in ":port" to "" as mandated by
// RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
