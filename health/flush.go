package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/cachestats/resilience"
)

// FlushSource reports flush progress. persist.Scheduler satisfies it.
type FlushSource interface {
	LastFlushedAt() time.Time
	Interval() time.Duration
	LastError() error
}

// FlushCheckerConfig configures a FlushChecker.
type FlushCheckerConfig struct {
	// Source reports the last successful flush. Required.
	Source FlushSource

	// Breaker guards the flush path. Optional; an open circuit is unhealthy.
	Breaker *resilience.CircuitBreaker

	// Since is the reference time before the first successful flush,
	// usually when the scheduler started. Default: construction time.
	Since time.Time

	// DegradedAfter is the number of intervals without a successful flush
	// that marks the pipeline degraded. Default: 3
	DegradedAfter int

	// UnhealthyAfter is the number of intervals without a successful flush
	// that marks the pipeline unhealthy. Default: 10
	UnhealthyAfter int

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// FlushChecker reports whether flushes keep reaching the store.
type FlushChecker struct {
	config FlushCheckerConfig
}

// NewFlushChecker creates a checker named "flush".
func NewFlushChecker(config FlushCheckerConfig) *FlushChecker {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Since.IsZero() {
		config.Since = config.Now()
	}
	if config.DegradedAfter <= 0 {
		config.DegradedAfter = 3
	}
	if config.UnhealthyAfter <= config.DegradedAfter {
		config.UnhealthyAfter = max(10, config.DegradedAfter+1)
	}
	return &FlushChecker{config: config}
}

// Name returns the name of this checker.
func (c *FlushChecker) Name() string {
	return "flush"
}

// Check compares the age of the last successful flush with the interval.
func (c *FlushChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	src := c.config.Source
	interval := src.Interval()
	last := src.LastFlushedAt()
	ref := last
	if ref.IsZero() {
		ref = c.config.Since
	}
	age := c.config.Now().Sub(ref)

	details := map[string]any{
		"interval":        interval.String(),
		"age":             age.String(),
		"last_flushed_at": last,
	}
	if err := src.LastError(); err != nil {
		details["last_error"] = err.Error()
	}
	if c.config.Breaker != nil {
		state := c.config.Breaker.State()
		details["circuit"] = state.String()
		if state == resilience.StateOpen {
			return Unhealthy("store circuit open", resilience.ErrCircuitOpen).WithDetails(details)
		}
	}

	switch {
	case interval > 0 && age > time.Duration(c.config.UnhealthyAfter)*interval:
		return Unhealthy(fmt.Sprintf("no successful flush for %s", age.Round(time.Second)), ErrFlushStale).WithDetails(details)
	case interval > 0 && age > time.Duration(c.config.DegradedAfter)*interval:
		return Degraded(fmt.Sprintf("last successful flush %s ago", age.Round(time.Second))).WithDetails(details)
	}
	return Healthy("flushing on schedule").WithDetails(details)
}
