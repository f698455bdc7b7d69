// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for setting the client-level timeout
// on a request attempt. A generic interface for timeout policies is
// provided, Policy, along with a policy generating function and
// built-in policies.
//
// The client-level timeout is separate from any I/O timeouts on the
// underlying transport. When it elapses the attempt is reported as a
// client timeout, not as a socket error.
package timeout
