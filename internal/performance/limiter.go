package performance

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket refilled at a fixed rate.
type RateLimiter struct {
	perSecond float64
	capacity  float64
	now       func() time.Time

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a full bucket of burst tokens refilled at rate
// tokens per second.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	r := &RateLimiter{perSecond: rate, capacity: float64(burst), now: time.Now}
	r.tokens = r.capacity
	r.last = r.now()
	return r
}

// Allow takes a token if one is available.
func (r *RateLimiter) Allow() bool {
	return r.reserve() == 0
}

// Wait blocks until a token is taken or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		delay := r.reserve()
		if delay == 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve takes a token and returns 0, or returns how long until one is due.
func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.tokens += now.Sub(r.last).Seconds() * r.perSecond
	if r.tokens > r.capacity {
		r.tokens = r.capacity
	}
	r.last = now

	if r.tokens >= 1 {
		r.tokens--
		return 0
	}
	if r.perSecond <= 0 {
		return time.Second
	}
	wait := time.Duration((1 - r.tokens) / r.perSecond * float64(time.Second))
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}
