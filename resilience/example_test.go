package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/cachestats/resilience"
)

func ExampleGuard() {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Minute,
	})
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})
	guard := resilience.NewGuard(breaker, retry)

	attempts := 0
	err := guard.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("connection reset")
		}
		return nil
	})

	fmt.Println("error:", err)
	fmt.Println("attempts:", attempts)
	fmt.Println("state:", guard.State())
	// Output:
	// error: <nil>
	// attempts: 2
	// state: closed
}

func ExampleCircuitBreaker_State() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Minute,
	})
	ctx := context.Background()

	fmt.Println("initial:", cb.State())
	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, func(ctx context.Context) error {
			return errors.New("store unavailable")
		})
	}
	fmt.Println("after failures:", cb.State())

	cb.Reset()
	fmt.Println("after reset:", cb.State())
	// Output:
	// initial: closed
	// after failures: open
	// after reset: closed
}

func ExamplePermanent() {
	err := resilience.Permanent(errors.New("record has no cache name"))
	fmt.Println(resilience.Retryable(err))
	// Output:
	// false
}
