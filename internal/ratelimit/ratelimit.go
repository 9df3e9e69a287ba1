// Package ratelimit throttles calls to upstream APIs with per-minute
// request budgets, as published by RPC endpoints and price feeds.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter enforces a requests-per-minute budget. The zero value is not
// usable; construct with New.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter for the given per-minute budget. The budget is
// spread evenly across the minute with a burst of 10% (at least one),
// so short spikes pass without blowing the upstream quota.
func New(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
	}
}

// Wait blocks until the next request is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed right now, without
// blocking. A false return does not consume budget.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
