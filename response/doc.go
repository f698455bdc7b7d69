// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package response contains Response, the single result type produced for
every request attempt.

A Response is one of four variants, selected by its Kind: Completed,
ClientTimeout, SocketError, or RequestError. Callers switch on the kind
rather than assuming the exchange completed:

	r, err := executor.Send(ctx, p)
	if err != nil {
		// The plan itself was invalid; nothing was sent.
	}
	switch r.Kind {
	case response.Completed:
		fmt.Println(r.Status(), len(r.Body()))
	case response.ClientTimeout:
		fmt.Println("gave up after", r.Elapsed)
	case response.SocketError, response.RequestError:
		fmt.Println(r.Message())
	}

A 4XX or 5XX status is still a Completed response: this package reports
what happened on the wire, not whether the server was happy.
*/
package response
