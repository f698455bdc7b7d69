// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gogama/courier/header"
	"github.com/gogama/courier/request"
	"github.com/gogama/courier/response"
	"golang.org/x/net/http/httpguts"
)

var (
	// ErrInvalidHeader is returned by ConvertRequest when a plan header
	// field has a name or value the HTTP transport would reject.
	ErrInvalidHeader = errors.New("courier/transport: invalid header field")
	// ErrNegativeElapsed is returned by ConvertResponse when given a
	// negative elapsed time.
	ErrNegativeElapsed = errors.New("courier/transport: negative elapsed time")
	// ErrBodyTooLarge is returned by ReadBody when the response body
	// exceeds the buffer limit.
	ErrBodyTooLarge = errors.New("courier/transport: response body exceeds buffer limit")

	errNilPlan     = errors.New("courier/transport: nil plan")
	errNilResponse = errors.New("courier/transport: nil response")
	errNilContext  = errors.New("courier/transport: nil context")
)

var blank, _ = http.NewRequest(http.MethodGet, "", nil)

// ConvertRequest creates the http.Request for the plan p, with its
// context set to ctx. Header fields are added verbatim and in order.
//
// ConvertRequest returns an error wrapping ErrInvalidHeader if any
// header field name or value is not valid on the wire.
func ConvertRequest(ctx context.Context, p *request.Plan) (*http.Request, error) {
	if ctx == nil {
		return nil, errNilContext
	}
	if p == nil {
		return nil, errNilPlan
	}
	for _, f := range p.Header {
		if !httpguts.ValidHeaderFieldName(f.Name) {
			return nil, fmt.Errorf("%w: name %q", ErrInvalidHeader, f.Name)
		}
		if !httpguts.ValidHeaderFieldValue(f.Value) {
			return nil, fmt.Errorf("%w: value for %q", ErrInvalidHeader, f.Name)
		}
	}

	r := blank.WithContext(ctx)
	r.Method = p.Method
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	r.URL = p.URL
	r.Header = p.Header.HTTP()
	if len(p.Body) > 0 {
		body := p.Body
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		r.ContentLength = int64(len(body))
	}
	r.Close = p.Close
	r.Host = p.Host
	return r, nil
}

// ConvertResponse converts an HTTP response, together with its already
// buffered body, into a Completed response. Header and trailer fields
// with several values are flattened into one comma-separated field.
//
// Trailers are only available once the body has been read to the end,
// so call ConvertResponse after ReadBody.
func ConvertResponse(resp *http.Response, body []byte, elapsed time.Duration) (*response.Response, error) {
	if resp == nil {
		return nil, errNilResponse
	}
	if elapsed < 0 {
		return nil, ErrNegativeElapsed
	}

	return response.NewCompleted(elapsed, &response.Exchange{
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Proto:      resp.Proto,
		ProtoMajor: resp.ProtoMajor,
		ProtoMinor: resp.ProtoMinor,
		Header:     header.Flatten(resp.Header),
		Trailer:    header.Flatten(resp.Trailer),
		Body:       body,
	}), nil
}

// ReadBody reads the whole response body, up to limit bytes. A limit
// of zero or less means DefaultMaxResponseBufferSize. If the body is
// longer than limit, ReadBody returns ErrBodyTooLarge along with the
// first limit bytes.
//
// ReadBody does not close the body.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxResponseBufferSize
	}
	if resp.ContentLength > limit {
		return nil, ErrBodyTooLarge
	}

	n := limit
	if n < math.MaxInt64 {
		n++
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, n))
	if err != nil {
		return b, err
	}
	if int64(len(b)) > limit {
		return b[:limit], ErrBodyTooLarge
	}
	return b, nil
}

func reasonPhrase(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if resp.Status == code {
		return ""
	}
	if reason, ok := strings.CutPrefix(resp.Status, code+" "); ok {
		return reason
	}
	return resp.Status
}
