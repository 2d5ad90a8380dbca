// Package retry re-runs calls to remote key-value backends (Redis,
// PostgreSQL) with exponential backoff and jitter. Which errors are worth
// another attempt is decided by the backend, not by wrapping errors.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy describes how a backend call is retried.
type Policy struct {
	// Attempts is the total number of calls, the first one included.
	Attempts int

	// BaseDelay is the wait before the first retry; each retry doubles it.
	BaseDelay time.Duration

	// MaxDelay caps the wait between calls.
	MaxDelay time.Duration

	// Jitter spreads each wait by up to ±Jitter of its length (0 to 1).
	Jitter float64

	// Transient reports whether err may succeed on another call. Nil means
	// nothing is retried.
	Transient func(err error) bool

	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// StorePolicy is the policy of the remote store backends: three calls,
// 50ms doubling to at most 1s, 5% jitter.
func StorePolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 50 * time.Millisecond,
		MaxDelay:  time.Second,
		Jitter:    0.05,
	}
}

// Retrier runs operations under one Policy.
type Retrier struct {
	policy Policy
}

// New creates a Retrier. Zero fields fall back to StorePolicy.
func New(p Policy) *Retrier {
	defaults := StorePolicy()
	if p.Attempts <= 0 {
		p.Attempts = defaults.Attempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaults.BaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = max(defaults.MaxDelay, p.BaseDelay)
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		p.Jitter = defaults.Jitter
	}
	return &Retrier{policy: p}
}

// StoreRetrier returns a Retrier with StorePolicy, the backend's transient
// classifier and a retry hook (usually a log line).
func StoreRetrier(transient func(error) bool, onRetry func(attempt int, err error, delay time.Duration)) *Retrier {
	p := StorePolicy()
	p.Transient = transient
	p.OnRetry = onRetry
	return New(p)
}

// Do calls operation until it succeeds, fails with a non-transient error,
// runs out of attempts or ctx is done. The last operation error is returned.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if r.policy.Transient == nil || !r.policy.Transient(err) || attempt == r.policy.Attempts {
			return err
		}

		delay := r.delay(attempt)
		if r.policy.OnRetry != nil {
			r.policy.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
	}

	return lastErr
}

// Value is Do for operations that return a result.
func Value[T any](ctx context.Context, r *Retrier, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = operation(ctx)
		return opErr
	})
	return result, err
}

func (r *Retrier) delay(attempt int) time.Duration {
	d := r.policy.BaseDelay << (attempt - 1)
	if d <= 0 || d > r.policy.MaxDelay {
		d = r.policy.MaxDelay
	}
	if r.policy.Jitter > 0 {
		d += time.Duration(float64(d) * r.policy.Jitter * (rand.Float64()*2 - 1))
	}
	return max(d, 0)
}
