package fetcher

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a minimum spacing between requests to one external host,
// shared by every concurrent caller.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter returns a limiter granting at most one slot per minInterval.
// A non-positive interval disables spacing.
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, 1)}
}

// Acquire blocks until the next request slot is available or ctx is done.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
