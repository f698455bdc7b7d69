// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package courier

import (
	"context"
	"net/url"

	"github.com/gogama/courier/request"
	"github.com/gogama/courier/response"
	"github.com/gogama/courier/urltemplate"
)

// Sender is the interface that wraps the basic Send method.
//
// Send sends an HTTP request plan and returns its classified outcome.
// Executor implements the Sender interface, and any other Sender
// implementation must behave substantially the same as Executor.Send.
//
// Any Sender can be converted into a Requester via the Inflate function.
type Sender interface {
	Send(ctx context.Context, p *request.Plan) (*response.Response, error)
}

// Getter is the interface that wraps the basic Get method.
//
// Any Sender can be used to emulate a Getter via the Get function.
type Getter interface {
	Get(ctx context.Context, url string) (*response.Response, error)
}

// Header is the interface that wraps the basic Head method.
//
// Any Sender can be used to emulate a Header via the Head function.
type Header interface {
	Head(ctx context.Context, url string) (*response.Response, error)
}

// Poster is the interface that wraps the basic Post method.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.BodyBytes, namely: string; []byte;
// io.Reader; and io.ReadCloser.
//
// Any Sender can be used to emulate a Poster via the Post function.
type Poster interface {
	Post(ctx context.Context, url, contentType string, body interface{}) (*response.Response, error)
}

// FormPoster is the interface that wraps the basic PostForm method.
//
// The request body is set to the URL-encoded keys and values from data,
// and the content type is set to application/x-www-form-urlencoded.
//
// Any Sender can be used to emulate a FormPoster via the PostForm
// function.
type FormPoster interface {
	PostForm(ctx context.Context, url string, data url.Values) (*response.Response, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
type IdleCloser interface {
	CloseIdleConnections()
}

// Requester is the interface that groups the basic Send, Get, Head,
// Post, PostForm, and CloseIdleConnections methods.
//
// Any Sender can be converted into a Requester via the Inflate function.
type Requester interface {
	Sender
	Getter
	Header
	Poster
	FormPoster
	IdleCloser
}

// Get uses the specified Sender to issue a GET to the specified URL.
func Get(ctx context.Context, s Sender, url string) (*response.Response, error) {
	p, err := request.NewPlan("GET", url, nil)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, p)
}

// Head uses the specified Sender to issue a HEAD to the specified URL.
func Head(ctx context.Context, s Sender, url string) (*response.Response, error) {
	p, err := request.NewPlan("HEAD", url, nil)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, p)
}

// Post uses the specified Sender to issue a POST to the specified URL.
// The Content-Type header is set to contentType.
func Post(ctx context.Context, s Sender, url, contentType string, body interface{}) (*response.Response, error) {
	p, err := request.NewPlan("POST", url, body)
	if err != nil {
		return nil, err
	}
	p.Header.Set("Content-Type", contentType)
	return s.Send(ctx, p)
}

// PostForm uses the specified Sender to issue a POST to the specified
// URL, with data's keys and values URL-encoded as the request body.
func PostForm(ctx context.Context, s Sender, url string, data url.Values) (*response.Response, error) {
	return Post(ctx, s, url, "application/x-www-form-urlencoded", data.Encode())
}

// SendTemplate resolves tpl to a URL and uses the specified Sender to
// send a request with the given method and body to it. An error is
// returned, and nothing is sent, if the template does not resolve to an
// absolute URL.
func SendTemplate(ctx context.Context, s Sender, method string, tpl *urltemplate.Template, body interface{}) (*response.Response, error) {
	p, err := request.NewTemplatePlan(method, tpl, body)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, p)
}

// Inflate converts any non-nil Sender into a Requester. This may be
// helpful for interop across library boundaries, i.e. if code that only
// has access to a Sender needs to call a function that requires a
// Requester.
func Inflate(s Sender) Requester {
	if s == nil {
		panic("courier: nil sender")
	}

	if r, ok := s.(Requester); ok {
		return r
	}

	return inflated{s}
}

type inflated struct {
	sender Sender
}

func (i inflated) Send(ctx context.Context, p *request.Plan) (*response.Response, error) {
	return i.sender.Send(ctx, p)
}

func (i inflated) Get(ctx context.Context, url string) (*response.Response, error) {
	return Get(ctx, i.sender, url)
}

func (i inflated) Head(ctx context.Context, url string) (*response.Response, error) {
	return Head(ctx, i.sender, url)
}

func (i inflated) Post(ctx context.Context, url, contentType string, body interface{}) (*response.Response, error) {
	return Post(ctx, i.sender, url, contentType, body)
}

func (i inflated) PostForm(ctx context.Context, url string, data url.Values) (*response.Response, error) {
	return PostForm(ctx, i.sender, url, data)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.sender.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
