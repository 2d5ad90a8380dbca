// Package circuitbreaker stops calling a remote backend after repeated
// failures and lets a single probe through once a cooldown has passed.
// No external dependencies - uses only standard library.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// StateClosed - calls pass through.
	StateClosed State = iota
	// StateOpen - calls fail fast with ErrOpen.
	StateOpen
	// StateHalfOpen - one probe call is in flight.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned without calling fn while the circuit is open or a
// probe is already running.
var ErrOpen = errors.New("circuit breaker is open")

// Config holds circuit breaker configuration.
type Config struct {
	// Name identifies the breaker in logs.
	Name string

	// FailureThreshold is how many consecutive failures open the circuit.
	FailureThreshold int

	// Cooldown is how long the circuit stays open before a probe.
	Cooldown time.Duration

	// IsFailure decides which errors count. Nil counts every error except
	// context cancellation.
	IsFailure func(error) bool

	// OnStateChange is called with the lock held; it must not call back
	// into the breaker.
	OnStateChange func(name string, from, to State)

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// BackendConfig returns settings for a key-value backend: three strikes,
// five seconds of rest.
func BackendConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 3,
		Cooldown:         5 * time.Second,
	}
}

// Counts holds the totals since creation.
type Counts struct {
	Requests            int
	Failures            int
	Rejected            int
	ConsecutiveFailures int
}

// CircuitBreaker guards calls to one dependency.
type CircuitBreaker struct {
	config Config

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
}

// New creates a closed breaker. Zero fields fall back to BackendConfig.
func New(config Config) *CircuitBreaker {
	defaults := BackendConfig(config.Name)
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.Cooldown <= 0 {
		config.Cooldown = defaults.Cooldown
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}
	}
	return &CircuitBreaker{config: config}
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.config.Now().Sub(cb.openedAt) < cb.config.Cooldown {
			cb.counts.Rejected++
			return ErrOpen
		}
		cb.setState(StateHalfOpen)
	case StateHalfOpen:
		cb.counts.Rejected++
		return ErrOpen
	}
	cb.counts.Requests++
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil || !cb.config.IsFailure(err) {
		cb.counts.ConsecutiveFailures = 0
		if cb.state == StateHalfOpen {
			cb.setState(StateClosed)
		}
		return
	}

	cb.counts.Failures++
	cb.counts.ConsecutiveFailures++
	if cb.state == StateHalfOpen || cb.counts.ConsecutiveFailures >= cb.config.FailureThreshold {
		cb.openedAt = cb.config.Now()
		cb.setState(StateOpen)
	}
}

func (cb *CircuitBreaker) setState(next State) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next
	if next == StateClosed {
		cb.counts.ConsecutiveFailures = 0
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, prev, next)
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns the current counts.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}
