// Package resilience guards durable-storage calls made by the flush path.
//
// Two patterns are provided and composed by Guard:
//
//   - Retry: re-runs a failed store operation with exponential or constant
//     backoff. Context cancellation and errors marked permanent are never
//     retried.
//
//   - Circuit Breaker: after repeated failed flushes, rejects further
//     attempts until a reset timeout elapses, so a dead store costs one
//     fast ErrCircuitOpen per tick instead of a full retry cycle.
//
// # Usage
//
//	guard := resilience.NewGuard(
//	    resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 5}),
//	    resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3}),
//	)
//
//	err := guard.Do(ctx, func(ctx context.Context) error {
//	    return st.Commit(ctx, batch)
//	})
//
// None of the types impose timeouts; the store owns them.
package resilience
