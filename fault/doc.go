// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package fault classifies the errors of an HTTP request attempt into
// the failure variants of a response: ClientTimeout, SocketError or
// RequestError.
//
// Classification looks at wrapped causes, not just the error itself, so
// the *url.Error values returned by net/http can be passed in directly.
// A classification is a plain value, so callers can also use it for
// other purposes, such as bucketing error metrics.
package fault
