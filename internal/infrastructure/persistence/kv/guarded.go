package kv

import (
	"context"

	"github.com/Yaasiin-15/StudyDash-sub001/pkg/circuitbreaker"
)

// Guarded wraps a remote Backend with a circuit breaker so a dead server
// fails the remaining calls of a command fast instead of retrying each one.
type Guarded struct {
	backend Backend
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuarded wraps backend.
func NewGuarded(backend Backend, breaker *circuitbreaker.CircuitBreaker) *Guarded {
	return &Guarded{backend: backend, breaker: breaker}
}

// Get implements Backend.
func (g *Guarded) Get(ctx context.Context, key string) (value string, found bool, err error) {
	err = g.breaker.Execute(ctx, func(ctx context.Context) error {
		var getErr error
		value, found, getErr = g.backend.Get(ctx, key)
		return getErr
	})
	return value, found, err
}

// Set implements Backend.
func (g *Guarded) Set(ctx context.Context, key, value string) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.backend.Set(ctx, key, value)
	})
}

// Remove implements Backend.
func (g *Guarded) Remove(ctx context.Context, key string) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.backend.Remove(ctx, key)
	})
}

// Keys implements Lister when the wrapped backend does.
func (g *Guarded) Keys(ctx context.Context, prefix string) ([]string, error) {
	lister, ok := g.backend.(Lister)
	if !ok {
		return nil, ErrNotListable
	}
	var keys []string
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var listErr error
		keys, listErr = lister.Keys(ctx, prefix)
		return listErr
	})
	return keys, err
}
