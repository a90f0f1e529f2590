package resilience

import "context"

// Guard composes a circuit breaker around a retry loop. An exhausted retry
// counts as one breaker failure. Either part may be nil.
type Guard struct {
	breaker *CircuitBreaker
	retry   *Retry
}

// NewGuard creates a guard.
func NewGuard(breaker *CircuitBreaker, retry *Retry) *Guard {
	return &Guard{breaker: breaker, retry: retry}
}

// Do runs op through the retry loop inside the breaker.
func (g *Guard) Do(ctx context.Context, op func(context.Context) error) error {
	if g == nil {
		return op(ctx)
	}
	run := op
	if g.retry != nil {
		run = func(ctx context.Context) error { return g.retry.Execute(ctx, op) }
	}
	if g.breaker != nil {
		return g.breaker.Execute(ctx, run)
	}
	return run(ctx)
}

// Breaker returns the guard's circuit breaker, or nil.
func (g *Guard) Breaker() *CircuitBreaker {
	if g == nil {
		return nil
	}
	return g.breaker
}

// State reports the breaker state, StateClosed without a breaker.
func (g *Guard) State() State {
	if g == nil || g.breaker == nil {
		return StateClosed
	}
	return g.breaker.State()
}
