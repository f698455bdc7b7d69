// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transport adapts request plans and HTTP responses to and from
// the standard net/http types, and builds the long-lived HTTP client an
// executor sends requests through.
//
// The client is configured once, with a Config, and fixes the maximum
// response buffer size and the pooled connection lifetime for the life
// of the process:
//
//	c, err := transport.NewClient(transport.Config{
//		PooledConnectionLifetime: 20 * time.Minute,
//	})
//
// ConvertRequest and ConvertResponse are the two halves of the adapter:
// a plan becomes an *http.Request, and an *http.Response with its
// buffered body becomes a Completed response.
package transport
