// Package resilience guards calls to external services with a circuit
// breaker, so a dead or misconfigured model endpoint fails fast instead of
// stalling every command for the full timeout.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the state of a breaker.
type State string

const (
	Closed   State = "closed"    // calls pass through
	Open     State = "open"      // calls are rejected
	HalfOpen State = "half_open" // one trial call is allowed
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit open")

// Config holds breaker settings.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before a trial call.
	Cooldown time.Duration
	// Counts decides which errors count as failures. Nil counts every
	// error except context cancellation by the caller.
	Counts func(error) bool
}

// DefaultConfig returns the settings used for model calls.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		Cooldown:         time.Minute,
	}
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	name string
	cfg  Config
	now  func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool

	calls    int64
	rejected int64
}

// NewBreaker creates a closed breaker.
func NewBreaker(name string, cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultConfig().Cooldown
	}
	return &Breaker{name: name, cfg: cfg, now: time.Now, state: Closed}
}

// Do runs fn unless the breaker is open and records the outcome.
func Do[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}
	v, err := fn(ctx)
	b.record(err)
	if err != nil {
		return zero, err
	}
	return v, nil
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls++
	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			b.rejected++
			return fmt.Errorf("%s: %w", b.name, ErrOpen)
		}
		b.state = HalfOpen
		b.probing = true
		return nil
	case HalfOpen:
		if b.probing {
			b.rejected++
			return fmt.Errorf("%s: %w", b.name, ErrOpen)
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if err == nil || !b.counts(err) {
		if b.state == HalfOpen && err == nil {
			b.state = Closed
		}
		if err == nil {
			b.failures = 0
		}
		return
	}

	b.failures++
	if b.state == HalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.state = Open
		b.openedAt = b.now()
		b.failures = 0
	}
}

func (b *Breaker) counts(err error) bool {
	if b.cfg.Counts != nil {
		return b.cfg.Counts(err)
	}
	return !errors.Is(err, context.Canceled)
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats is a snapshot of breaker counters.
type Stats struct {
	Name     string `json:"name"`
	State    State  `json:"state"`
	Calls    int64  `json:"calls"`
	Rejected int64  `json:"rejected"`
	Failures int    `json:"consecutive_failures"`
}

// Stats returns breaker counters.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Name:     b.name,
		State:    b.state,
		Calls:    b.calls,
		Rejected: b.rejected,
		Failures: b.failures,
	}
}

// Reset closes the breaker.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.probing = false
}
