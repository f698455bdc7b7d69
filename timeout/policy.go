// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"math"
	"time"

	"github.com/gogama/courier/request"
)

// Never is the timeout value meaning "no client-level timeout". An
// executor given this value sets no deadline on the attempt, which can
// then only end by completing, failing, or being cancelled.
const Never = time.Duration(math.MaxInt64)

// A Policy decides the client-level timeout for a request attempt.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the attempt to send the
	// plan p. A return value of Never means no timeout. The return
	// value must not be negative.
	Timeout(p *request.Plan) time.Duration
}

// DefaultTimeout is the timeout DefaultPolicy applies to plans which do
// not set their own.
const DefaultTimeout = time.Minute

// DefaultPolicy is the default timeout policy. It honours a plan's own
// timeout and otherwise applies DefaultTimeout.
var DefaultPolicy Policy = Fixed(DefaultTimeout)

// Infinite is a built-in timeout policy which honours a plan's own
// timeout and otherwise never times out.
var Infinite Policy = Fixed(Never)

// Fixed constructs a timeout policy which returns the plan's own
// Timeout if it is positive, and d otherwise.
//
// Fixed panics if d is not positive.
func Fixed(d time.Duration) Policy {
	if d <= 0 {
		panic("courier/timeout: non-positive timeout")
	}
	return fixed(d)
}

type fixed time.Duration

func (f fixed) Timeout(p *request.Plan) time.Duration {
	if p != nil && p.Timeout > 0 {
		return p.Timeout
	}
	return time.Duration(f)
}
