package health

import (
	"context"
	"fmt"
	"time"
)

// Pinger is satisfied by every store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker reports the durable store unhealthy when Ping fails.
type StoreChecker struct {
	name   string
	pinger Pinger
}

// NewStoreChecker creates a checker named "store" for p.
func NewStoreChecker(p Pinger) *StoreChecker {
	return &StoreChecker{name: "store", pinger: p}
}

// Name returns the name of this checker.
func (c *StoreChecker) Name() string {
	return c.name
}

// Check pings the store.
func (c *StoreChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}
	start := time.Now()
	if err := c.pinger.Ping(ctx); err != nil {
		return Unhealthy("store ping failed", fmt.Errorf("%w: %w", ErrCheckFailed, err)).WithDuration(time.Since(start))
	}
	return Healthy("store reachable").WithDuration(time.Since(start))
}
