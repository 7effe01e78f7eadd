package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a requests-per-minute ceiling shared by every caller of
// one client. It is safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter returns a limiter allowing rpm requests per minute. A
// non-positive rpm disables limiting.
func NewRateLimiter(rpm int) *RateLimiter {
	if rpm <= 0 {
		return &RateLimiter{}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)}
}

// Wait blocks until the next request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

// Interval returns the minimum spacing between requests, zero when disabled.
func (r *RateLimiter) Interval() time.Duration {
	if r == nil || r.limiter == nil {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(r.limiter.Limit()))
}
