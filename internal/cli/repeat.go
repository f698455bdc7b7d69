// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cli

import (
	"context"
	"sync"

	"github.com/gogama/courier"
	"github.com/gogama/courier/request"
	"github.com/gogama/courier/response"
	"golang.org/x/time/rate"
)

type repeatResult struct {
	sent   int
	failed int
	err    error
}

// repeat sends p n times with at most concurrency sends in flight and,
// if perSecond is positive, no more than perSecond sends started per
// second. It stops starting sends when ctx is done; sends already in
// flight end as cancelled.
func repeat(ctx context.Context, s courier.Sender, p *request.Plan, n, concurrency int, perSecond float64) repeatResult {
	var limiter *rate.Limiter
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}

	var (
		mu  sync.Mutex
		res repeatResult
		wg  sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

loop:
	for i := 0; i < n; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}

		mu.Lock()
		res.sent++
		mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			r, err := s.Send(ctx, p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if res.err == nil {
					res.err = err
				}
				res.failed++
			} else if r.Kind != response.Completed {
				res.failed++
			}
		}()
	}

	wg.Wait()
	return res
}
