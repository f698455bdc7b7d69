// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"net/http"

	"github.com/fatih/color"
	"github.com/gogama/courier/request"
	"github.com/gogama/courier/response"
	"github.com/tidwall/gjson"
)

var methodColors = map[string]color.Attribute{
	http.MethodGet:     color.FgBlue,
	http.MethodPost:    color.FgYellow,
	http.MethodPut:     color.FgHiYellow,
	http.MethodPatch:   color.FgHiYellow,
	http.MethodDelete:  color.FgRed,
	http.MethodTrace:   color.FgWhite,
	http.MethodHead:    color.FgMagenta,
	http.MethodConnect: color.FgHiRed,
	http.MethodOptions: color.FgBlue,
}

func methodString(method string) string {
	attr, ok := methodColors[method]
	if !ok {
		return method
	}
	return color.New(attr, color.Bold).Sprint(method)
}

func statusString(r *response.Response) string {
	var attr color.Attribute
	switch r.Kind {
	case response.Completed:
		switch code := r.StatusCode(); {
		case code >= 500:
			attr = color.FgRed
		case code >= 400:
			attr = color.FgYellow
		case code >= 300:
			attr = color.FgCyan
		default:
			attr = color.FgGreen
		}
	case response.ClientTimeout:
		attr = color.FgYellow
	default:
		attr = color.FgRed
	}
	return color.New(attr).Sprint(r.Status())
}

// A renderer prints responses. The summary line and failures go to
// errOut so that out carries only the response itself.
type renderer struct {
	out     io.Writer
	errOut  io.Writer
	include bool
	// selectPath, if set, is a gjson path selecting part of a JSON
	// body to print instead of the whole body.
	selectPath string
}

// summary prints a one-line description of the outcome of p.
func (rd *renderer) summary(p *request.Plan, r *response.Response) {
	faint := color.New(color.Faint).SprintFunc()
	fmt.Fprintf(rd.errOut, "%s %s %s %s\n",
		methodString(p.Method), p.URL.Redacted(), statusString(r), faint(r.Elapsed.String()))
	if r.Kind != response.Completed {
		fmt.Fprintln(rd.errOut, color.RedString(r.Message()))
	}
}

// response prints the status line and headers if requested, then the
// body or the selected part of it.
func (rd *renderer) response(r *response.Response) error {
	if r.Kind != response.Completed {
		return nil
	}

	x := r.Exchange
	if rd.include {
		proto := x.Proto
		if proto == "" {
			proto = "HTTP/1.1"
		}
		fmt.Fprintf(rd.out, "%s %s\n", proto, r.Status())
		for _, f := range x.Header {
			fmt.Fprintf(rd.out, "%s: %s\n", f.Name, f.Value)
		}
		fmt.Fprintln(rd.out)
	}

	if rd.selectPath == "" {
		_, err := rd.out.Write(x.Body)
		return err
	}

	if !gjson.ValidBytes(x.Body) {
		return fmt.Errorf("select: response body is not JSON")
	}
	result := gjson.GetBytes(x.Body, rd.selectPath)
	if !result.Exists() {
		return fmt.Errorf("select: no match for %q", rd.selectPath)
	}
	_, err := fmt.Fprintln(rd.out, result.String())
	return err
}
