package engine

import (
	"context"
	"time"

	"github.com/jonwraymond/cachestats/metrics"
	"github.com/jonwraymond/cachestats/persist"
	"github.com/jonwraymond/cachestats/store"
)

// PersistenceStatus describes the flush pipeline.
type PersistenceStatus struct {
	Enabled           bool      `json:"enabled"`
	KeyMetricsEnabled bool      `json:"key_metrics_enabled"`
	LastFlushedAt     time.Time `json:"last_flushed_at"`
	IntervalMs        int64     `json:"interval_ms"`
}

// CurrentStats returns the derived snapshot of the live window.
func (e *Engine) CurrentStats() metrics.Stats {
	return e.acc.Stats()
}

// CurrentKeyStats returns every tracked key of the live window.
func (e *Engine) CurrentKeyStats() map[string]metrics.KeyStats {
	return e.acc.KeyStats()
}

// TopKeys returns up to n keys with the most traffic.
func (e *Engine) TopKeys(n int) []metrics.KeyStats {
	return e.acc.TopKeys(n)
}

// ColdKeys returns up to n keys accessed least recently.
func (e *Engine) ColdKeys(n int) []metrics.KeyStats {
	return e.acc.ColdKeys(n)
}

// HistoricalStats returns hourly aggregate rows with bucket start in
// [from, to], newest first.
func (e *Engine) HistoricalStats(ctx context.Context, from, to time.Time) ([]*store.AggregateRecord, error) {
	return e.HistoricalStatsByPeriod(ctx, store.PeriodHourly, from, to)
}

// HistoricalStatsByPeriod returns aggregate rows of the given period.
func (e *Engine) HistoricalStatsByPeriod(ctx context.Context, period store.Period, from, to time.Time) ([]*store.AggregateRecord, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	return e.coord.HistoricalStats(ctx, period, from, to)
}

// HistoricalKeyStats returns the durable row of key if it was last accessed
// within [from, to].
func (e *Engine) HistoricalKeyStats(ctx context.Context, key string, from, to time.Time) ([]*store.KeyRecord, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	return e.coord.HistoricalKeyStats(ctx, key, from, to)
}

// QueryKeys returns durable key rows matching filter.
func (e *Engine) QueryKeys(ctx context.Context, filter store.KeyFilter) ([]*store.KeyRecord, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	return e.coord.QueryKeys(ctx, filter)
}

// EnableMetrics toggles aggregate recording.
func (e *Engine) EnableMetrics(enabled bool) {
	e.acc.EnableMetrics(enabled)
}

// EnableKeyMetrics toggles per-key recording.
func (e *Engine) EnableKeyMetrics(enabled bool) {
	e.acc.EnableKeyMetrics(enabled)
}

// FlushNow merges the live window into the store immediately, sharing an
// in-flight flush if one is running.
func (e *Engine) FlushNow(ctx context.Context) (persist.Outcome, error) {
	if e.closed.Load() {
		return persist.Outcome{}, ErrClosed
	}
	return e.sched.FlushNow(ctx)
}

// PersistenceStatus reports the flags, the last flush and the interval.
func (e *Engine) PersistenceStatus() PersistenceStatus {
	return PersistenceStatus{
		Enabled:           e.acc.MetricsEnabled(),
		KeyMetricsEnabled: e.acc.KeyMetricsEnabled(),
		LastFlushedAt:     e.sched.LastFlushedAt(),
		IntervalMs:        e.sched.Interval().Milliseconds(),
	}
}

// ClearMetrics deletes every durable aggregate row and resets the window.
func (e *Engine) ClearMetrics(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.coord.ClearMetrics(ctx)
}

// ClearKeyMetrics deletes every durable key row and resets the window.
func (e *Engine) ClearKeyMetrics(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.coord.ClearKeyMetrics(ctx)
}
