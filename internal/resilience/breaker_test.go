package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var errBoom = errors.New("boom")

func call(b *Breaker, err error) error {
	_, got := Do(context.Background(), b, func(context.Context) (int, error) {
		return 1, err
	})
	return got
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := NewBreaker("model", Config{FailureThreshold: 2, Cooldown: time.Minute})
	b.now = func() time.Time { return clock }

	call(b, errBoom)
	if b.State() != Closed {
		t.Fatalf("state after one failure = %s", b.State())
	}
	call(b, errBoom)
	if b.State() != Open {
		t.Fatalf("state after two failures = %s", b.State())
	}

	ran := false
	_, err := Do(context.Background(), b, func(context.Context) (int, error) {
		ran = true
		return 0, nil
	})
	if !errors.Is(err, ErrOpen) || ran {
		t.Errorf("open breaker err = %v, ran = %v", err, ran)
	}

	clock = clock.Add(2 * time.Minute)
	if err := call(b, errBoom); !errors.Is(err, errBoom) {
		t.Errorf("recovery call err = %v", err)
	}
	if b.State() != Open {
		t.Errorf("state after failed recovery call = %s", b.State())
	}

	clock = clock.Add(2 * time.Minute)
	if err := call(b, nil); err != nil {
		t.Errorf("recovery call err = %v", err)
	}
	if b.State() != Closed {
		t.Errorf("state after successful recovery call = %s", b.State())
	}

	s := b.Stats()
	if s.Name != "model" || s.Calls != 5 || s.Rejected != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestBreakerIgnoresUncountedErrors(t *testing.T) {
	b := NewBreaker("model", Config{
		FailureThreshold: 1,
		Counts:           func(err error) bool { return !errors.Is(err, errBoom) },
	})
	for i := 0; i < 3; i++ {
		call(b, errBoom)
	}
	if b.State() != Closed {
		t.Errorf("state = %s", b.State())
	}

	call(b, context.Canceled)
	if b.State() != Open {
		t.Errorf("custom Counts should count cancellation, state = %s", b.State())
	}
	b.Reset()
	if b.State() != Closed {
		t.Errorf("state after reset = %s", b.State())
	}

	def := NewBreaker("model", Config{FailureThreshold: 1})
	call(def, context.Canceled)
	if def.State() != Closed {
		t.Errorf("cancellation opened the default breaker")
	}
}

func TestBreakerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("opens exactly when consecutive failures reach the threshold", prop.ForAll(
		func(threshold int, outcomes []bool) bool {
			b := NewBreaker("p", Config{FailureThreshold: threshold, Cooldown: time.Hour})
			run := 0
			for _, fail := range outcomes {
				if b.State() == Open {
					return call(b, nil) != nil
				}
				var err error
				if fail {
					err = errBoom
					run++
				} else {
					run = 0
				}
				call(b, err)
				if (run >= threshold) != (b.State() == Open) {
					t.Logf("threshold %d run %d state %s", threshold, run, b.State())
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 5),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
