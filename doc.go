// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package courier sends HTTP requests and classifies every outcome, good or
bad, into a single response type with four variants: Completed,
ClientTimeout, SocketError and RequestError.

Create an Executor to begin sending requests.

	x := &courier.Executor{}
	r, err := x.Get(ctx, "https://www.example.com")
	...
	r, err := x.Post(ctx, "https://www.example.com/upload",
		"application/json", body)

The error return only reports invalid arguments, such as a relative URL
or a negative timeout. Network faults never surface as errors; inspect
the response kind instead:

	switch r.Kind {
	case response.Completed:
		fmt.Println(r.StatusCode(), string(r.Body()))
	case response.ClientTimeout:
		fmt.Println(r.Message())
	default:
		fmt.Println(r.Status(), r.Fault.Err)
	}

URLs with route and query parameters are built with package urltemplate
and sent with SendTemplate:

	tpl, err := urltemplate.Create("https://api.example.com/users/id",
		[]urltemplate.Param{{Name: "id", Value: "42"}}, nil)
	...
	r, err := courier.SendTemplate(ctx, x, "GET", tpl, nil)

For control over the connection pool, build the Executor from a
transport configuration. The settings are fixed for the Executor's life:

	x, err := courier.New(transport.Config{
		MaxResponseBufferSize:    1 << 20,
		PooledConnectionLifetime: 5 * time.Minute,
	})

For control over the per-request client timeout, set a timeout policy
using package timeout:

	x := &courier.Executor{
		TimeoutPolicy: timeout.Fixed(10 * time.Second),
	}

To hook into the details of sending, install a handler into the
appropriate handler chain. The packages under plugin provide ready-made
logging, metrics, tracing, history and statistics handlers.

	handlers := &courier.HandlerGroup{}
	handlers.PushBack(courier.AfterAttempt, courier.HandlerFunc(
		func(_ courier.Event, e *request.Execution) {
			log.Printf("%s %s: %s", e.Plan.Method, e.Plan.URL, e.Result.Status())
		}),
	)
	x := &courier.Executor{
		Handlers: handlers,
	}
*/
package courier
