package persist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/cachestats/metrics"
	"github.com/jonwraymond/cachestats/observe"
	"github.com/jonwraymond/cachestats/resilience"
	"github.com/jonwraymond/cachestats/store"
)

// Outcome describes one flush.
type Outcome struct {
	FlushID    string    `json:"flush_id"`
	At         time.Time `json:"at"`
	Aggregates int       `json:"aggregates"`
	Keys       int       `json:"keys"`

	// Skipped is set when there was nothing to write: the window was empty
	// or both recording flags were off.
	Skipped bool `json:"skipped"`
}

// Coordinator merges drained windows of one cache into a store.
//
// Contract:
// - Concurrency: safe for concurrent use. Flushes and clears are
// serialized, so a clear never interleaves with a flush's read-merge-write.
// - Errors: any store failure abandons the flush and is returned wrapped.
// All rows of a flush are committed as one batch, so a failed flush
// writes nothing.
type Coordinator struct {
	mu sync.Mutex

	cache  string
	acc    *metrics.Accumulator
	store  store.Store
	guard  *resilience.Guard
	mw     *observe.Middleware
	logger observe.Logger
	meta   observe.CacheMeta
	now    func() time.Time
	newID  func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithGuard runs every store call through g. A nil guard calls the store
// directly.
func WithGuard(g *resilience.Guard) Option {
	return func(c *Coordinator) { c.guard = g }
}

// WithMiddleware wraps every flush with tracing, metrics and logging.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(c *Coordinator) { c.mw = mw }
}

// WithLogger sets the logger. It is scoped to the cache on construction.
func WithLogger(l observe.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithStoreName records the backend name on telemetry.
func WithStoreName(name string) Option {
	return func(c *Coordinator) { c.meta.Store = name }
}

// WithClock sets the time source used for buckets and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithIDGenerator replaces the random flush id source.
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) { c.newID = fn }
}

// NewCoordinator creates a coordinator for cache over acc and st.
func NewCoordinator(cache string, acc *metrics.Accumulator, st store.Store, opts ...Option) (*Coordinator, error) {
	switch {
	case cache == "":
		return nil, ErrMissingCache
	case acc == nil:
		return nil, ErrNilAccumulator
	case st == nil:
		return nil, ErrNilStore
	}

	c := &Coordinator{
		cache: cache,
		acc:   acc,
		store: st,
		meta:  observe.CacheMeta{Name: cache},
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = observe.Noop().Logger()
	}
	if c.mw == nil {
		c.mw = observe.NewMiddleware(nil, nil, c.logger)
	}
	c.logger = c.logger.WithCache(c.meta)
	return c, nil
}

// Cache returns the cache name.
func (c *Coordinator) Cache() string {
	return c.cache
}

// Store returns the underlying store.
func (c *Coordinator) Store() store.Store {
	return c.store
}

// Guard returns the resilience guard, or nil.
func (c *Coordinator) Guard() *resilience.Guard {
	return c.guard
}

// Drain detaches the live window and flushes it with the accumulator's
// current flags. On failure the window is restored into the accumulator;
// since nothing was committed the next drain writes it exactly once.
func (c *Coordinator) Drain(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.acc.Detach()
	out, err := c.flush(ctx, w, c.acc.MetricsEnabled(), c.acc.KeyMetricsEnabled())
	if err != nil {
		c.acc.Restore(w)
	}
	return out, err
}

// Flush merges w into the hourly and daily aggregate rows when
// metricsEnabled, and into the per-key rows when keyMetricsEnabled.
// All rows are read and merged before one batch commits them.
func (c *Coordinator) Flush(ctx context.Context, w *metrics.Window, metricsEnabled, keyMetricsEnabled bool) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flush(ctx, w, metricsEnabled, keyMetricsEnabled)
}

func (c *Coordinator) flush(ctx context.Context, w *metrics.Window, metricsEnabled, keyMetricsEnabled bool) (Outcome, error) {
	now := c.now()
	out := Outcome{FlushID: c.newID(), At: now.UTC()}

	if w == nil || w.Empty() || (!metricsEnabled && !keyMetricsEnabled) {
		out.Skipped = true
		return out, nil
	}

	flush := c.mw.Wrap(c.meta, func(ctx context.Context) ([]observe.Field, error) {
		c.logger.Debug(ctx, "flush started",
			observe.Field{Key: "flush.id", Value: out.FlushID},
			observe.Field{Key: "keys", Value: w.Len()},
		)

		var batch store.Batch
		var err error
		if metricsEnabled {
			if batch.Aggregates, err = c.mergeAggregates(ctx, w.Stats(now), now); err != nil {
				return c.fields(out), err
			}
		}
		if keyMetricsEnabled {
			if batch.Keys, err = c.mergeKeys(ctx, w.KeyStats(), now); err != nil {
				return c.fields(out), err
			}
		}

		if err := c.guarded(ctx, func(ctx context.Context) error { return c.store.Commit(ctx, &batch) }); err != nil {
			return c.fields(out), fmt.Errorf("persist: commit %d rows: %w", batch.Len(), err)
		}
		out.Aggregates, out.Keys = len(batch.Aggregates), len(batch.Keys)
		return c.fields(out), nil
	})

	_, err := flush(ctx)
	return out, err
}

func (c *Coordinator) fields(out Outcome) []observe.Field {
	return []observe.Field{
		{Key: "flush.id", Value: out.FlushID},
		{Key: "flush.aggregates", Value: out.Aggregates},
		{Key: "flush.keys", Value: out.Keys},
	}
}

func (c *Coordinator) guarded(ctx context.Context, op func(context.Context) error) error {
	return c.guard.Do(ctx, op)
}

func (c *Coordinator) mergeAggregates(ctx context.Context, s metrics.Stats, now time.Time) ([]*store.AggregateRecord, error) {
	rows := make([]*store.AggregateRecord, 0, len(store.Periods))
	for _, period := range store.Periods {
		bucket := period.Bucket(now)
		var old *store.AggregateRecord
		err := c.guarded(ctx, func(ctx context.Context) error {
			r, err := c.store.ReadAggregate(ctx, c.cache, period, bucket)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			old = r
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("persist: read %s aggregate: %w", period, err)
		}
		rows = append(rows, MergeAggregate(old, c.cache, period, s, now))
	}
	return rows, nil
}

func (c *Coordinator) mergeKeys(ctx context.Context, snaps map[string]metrics.KeyStats, now time.Time) ([]*store.KeyRecord, error) {
	names := make([]string, 0, len(snaps))
	for k := range snaps {
		names = append(names, k)
	}
	sort.Strings(names)

	rows := make([]*store.KeyRecord, 0, len(names))
	for _, name := range names {
		var old *store.KeyRecord
		err := c.guarded(ctx, func(ctx context.Context) error {
			r, err := c.store.ReadKey(ctx, c.cache, name)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			old = r
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("persist: read key %q: %w", name, err)
		}
		rows = append(rows, MergeKey(old, c.cache, snaps[name], now))
	}
	return rows, nil
}

// ClearMetrics deletes every aggregate row of the cache and resets the live
// window, regardless of the recording flags. It waits for an in-flight
// flush to finish first.
func (c *Coordinator) ClearMetrics(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.DeleteAggregates(ctx, c.cache); err != nil {
		return fmt.Errorf("persist: clear metrics: %w", err)
	}
	c.acc.Reset()
	c.logger.Info(ctx, "metrics cleared")
	return nil
}

// ClearKeyMetrics deletes every key row of the cache and resets the live
// window, regardless of the recording flags. Aggregate rows are kept. It
// waits for an in-flight flush to finish first.
func (c *Coordinator) ClearKeyMetrics(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.DeleteKeys(ctx, c.cache); err != nil {
		return fmt.Errorf("persist: clear key metrics: %w", err)
	}
	c.acc.Reset()
	c.logger.Info(ctx, "key metrics cleared")
	return nil
}

// HistoricalStats returns the aggregate rows of period whose bucket start
// lies in [from, to], newest first.
func (c *Coordinator) HistoricalStats(ctx context.Context, period store.Period, from, to time.Time) ([]*store.AggregateRecord, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidPeriod, period)
	}
	rows, err := c.store.QueryAggregates(ctx, c.cache, period, from, to)
	if err != nil {
		return nil, fmt.Errorf("persist: historical stats: %w", err)
	}
	return rows, nil
}

// HistoricalKeyStats returns the durable row of key if it was last accessed
// within [from, to]. Zero bounds are open.
func (c *Coordinator) HistoricalKeyStats(ctx context.Context, key string, from, to time.Time) ([]*store.KeyRecord, error) {
	return c.QueryKeys(ctx, store.KeyFilter{Key: key, AccessedFrom: from, AccessedTo: to})
}

// QueryKeys returns the durable key rows matching filter.
func (c *Coordinator) QueryKeys(ctx context.Context, filter store.KeyFilter) ([]*store.KeyRecord, error) {
	rows, err := c.store.QueryKeys(ctx, c.cache, filter)
	if err != nil {
		return nil, fmt.Errorf("persist: historical key stats: %w", err)
	}
	return rows, nil
}
