// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Plan (describes an HTTP request
to send) and Execution (describes the state of sending it).

A Plan looks like a stripped-down http.Request with the server-side
fields removed, the body replaced with a pre-buffered []byte, and the
header replaced with an ordered list of fields. It adds a per-request
client timeout:

	p, err := request.NewPlan("GET", "https://example.com", nil)
	...
	p.Timeout = 10 * time.Second
	r, err := executor.Send(ctx, p)
	...

A plan's URL may also come from a template built with package
urltemplate:

	tpl, err := urltemplate.Create("https://example.com/{section}", route, query)
	...
	p, err := request.NewTemplatePlan("GET", tpl, nil)

A plan may carry a context, which lets the caller cancel the attempt.
The executor ORs the plan context with the context passed to Send and
with the per-request timeout; whichever ends first ends the attempt.

An Execution is the input type for the event handlers invoked while a
plan is executed. You will typically not allocate one yourself.
*/
package request
