package health

import (
	"context"
	"slices"
	"sync"
	"time"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout bounds one Run. Default: 10 seconds
	Timeout time.Duration

	// Parallel runs the checks concurrently.
	// Default: true
	Parallel bool
}

type entry struct {
	name    string
	checker Checker
}

// Aggregator runs a set of named checkers as one composite check.
//
// Contract:
// - Concurrency: safe for concurrent use, including Register during Run.
// - Context: every check receives a context bounded by Timeout; a check
// that does not return in time is reported unhealthy with ErrCheckTimeout.
type Aggregator struct {
	config AggregatorConfig

	mu      sync.RWMutex
	entries []entry
}

// NewAggregator creates an aggregator. Without a config the checks run in
// parallel with a 10s timeout.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	cfg := AggregatorConfig{Parallel: true}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Aggregator{config: cfg}
}

// Register adds checker under name, replacing an existing one in place.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i := a.indexLocked(name); i >= 0 {
		a.entries[i].checker = checker
		return
	}
	a.entries = append(a.entries, entry{name: name, checker: checker})
}

// Unregister removes the checker registered under name.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i := a.indexLocked(name); i >= 0 {
		a.entries = slices.Delete(a.entries, i, i+1)
	}
}

// CheckerNames returns the registered names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, len(a.entries))
	for i, e := range a.entries {
		names[i] = e.name
	}
	return names
}

func (a *Aggregator) indexLocked(name string) int {
	return slices.IndexFunc(a.entries, func(e entry) bool { return e.name == name })
}

func (a *Aggregator) snapshot() []entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.entries)
}

// Check runs the checker registered under name.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	i := a.indexLocked(name)
	var c Checker
	if i >= 0 {
		c = a.entries[i].checker
	}
	a.mu.RUnlock()

	if c == nil {
		return Result{}, ErrCheckerNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return runCheck(ctx, c), nil
}

// CheckAll runs every check and returns the results by name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	entries := a.snapshot()
	results := make(map[string]Result, len(entries))
	if len(entries) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	if !a.config.Parallel {
		for _, e := range entries {
			results[e.name] = runCheck(ctx, e.checker)
		}
		return results
	}

	out := make([]Result, len(entries))
	var wg sync.WaitGroup
	for i, e := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = runCheck(ctx, e.checker)
		}()
	}
	wg.Wait()
	for i, e := range entries {
		results[e.name] = out[i]
	}
	return results
}

// OverallStatus returns the worst status among results, healthy when empty.
func (a *Aggregator) OverallStatus(results map[string]Result) Status {
	overall := StatusHealthy
	for _, r := range results {
		overall = max(overall, r.Status)
	}
	return overall
}

// runCheck waits for c or for ctx, whichever comes first. A check that
// ignores ctx keeps running in its goroutine.
func runCheck(ctx context.Context, c Checker) Result {
	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		r := c.Check(ctx)
		r.Duration = time.Since(start)
		if r.Timestamp.IsZero() {
			r.Timestamp = start
		}
		done <- r
	}()

	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		r := Unhealthy("check timed out", ErrCheckTimeout).WithDuration(time.Since(start))
		r.Timestamp = start
		return r
	}
}

// Report is the combined outcome of every registered check.
type Report struct {
	Status    Status            `json:"status"`
	Results   map[string]Result `json:"results"`
	CheckedAt time.Time         `json:"checked_at"`
}

// Run executes every check and folds the results into a Report.
func (a *Aggregator) Run(ctx context.Context) Report {
	start := time.Now()
	results := a.CheckAll(ctx)
	return Report{
		Status:    a.OverallStatus(results),
		Results:   results,
		CheckedAt: start,
	}
}

var reportMessages = map[Status]string{
	StatusHealthy:   "all checks passed",
	StatusDegraded:  "some checks degraded",
	StatusUnhealthy: "some checks failed",
}

// Checker exposes the aggregator as a single Checker named "aggregate".
func (a *Aggregator) Checker() Checker {
	return NewCheckerFunc("aggregate", func(ctx context.Context) Result {
		report := a.Run(ctx)
		details := make(map[string]any, len(report.Results))
		for name, r := range report.Results {
			details[name] = map[string]any{
				"status":   r.Status.String(),
				"message":  r.Message,
				"duration": r.Duration.String(),
			}
		}
		return Result{
			Status:    report.Status,
			Message:   reportMessages[report.Status],
			Details:   details,
			Timestamp: report.CheckedAt,
		}
	})
}
