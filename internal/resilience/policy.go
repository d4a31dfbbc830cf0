package resilience

import (
	"context"

	"github.com/tradedesk/tiercache/internal/config"
)

// Policy combines the retry and circuit breaker patterns guarding remote
// tier calls.
type Policy struct {
	circuitBreaker CircuitBreakerExecutor
	retry          RetryExecutor
}

// CircuitBreakerExecutor defines the interface for circuit breaker operations.
type CircuitBreakerExecutor interface {
	Execute(fn func() (any, error)) (any, error)
	Allow() bool
	RecordSuccess()
	RecordFailure()
	State() State
	IsOpen() bool
	SetOnStateChange(fn func(from, to State))
}

// RetryExecutor defines the interface for retry operations.
type RetryExecutor interface {
	ExecuteCtx(ctx context.Context, fn func(context.Context) error) error
	ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error)
}

// NewPolicy creates a new resilience policy from the given configuration.
func NewPolicy(cfg *config.Config) *Policy {
	p := &Policy{}

	if cfg.CircuitBreaker.Enabled {
		p.circuitBreaker = NewCircuitBreaker(cfg.CircuitBreaker)
	} else {
		p.circuitBreaker = NewDisabledCircuitBreaker()
	}

	if cfg.Retry.Enabled {
		p.retry = NewRetryPolicy(cfg.Retry)
	} else {
		p.retry = NewDisabledRetryPolicy()
	}

	return p
}

// Execute runs an operation with retries, each attempt passing through the
// circuit breaker independently so every attempt counts toward circuit state.
// Wrapping the other way around, one failing request would exhaust all its
// retries before registering as a single circuit failure.
func (p *Policy) Execute(ctx context.Context, fn func(context.Context) error) error {
	return p.retry.ExecuteCtx(ctx, func(ctx context.Context) error {
		_, err := p.circuitBreaker.Execute(func() (any, error) {
			return nil, fn(ctx)
		})
		return err
	})
}

// ExecuteWithResult runs an operation that returns a result.
// See Execute for details on the ordering rationale.
func (p *Policy) ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	return p.retry.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return p.circuitBreaker.Execute(func() (any, error) {
			return fn(ctx)
		})
	})
}

// IsCircuitOpen returns true if the circuit breaker is open.
func (p *Policy) IsCircuitOpen() bool {
	return p.circuitBreaker.IsOpen()
}

// CircuitState returns the current circuit breaker state.
func (p *Policy) CircuitState() State {
	return p.circuitBreaker.State()
}

// SetOnCircuitStateChange sets a callback for circuit state changes.
func (p *Policy) SetOnCircuitStateChange(fn func(from, to State)) {
	p.circuitBreaker.SetOnStateChange(fn)
}
