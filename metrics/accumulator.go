package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Config configures an Accumulator.
type Config struct {
	// MetricsEnabled gates aggregate counters and latency buffers.
	MetricsEnabled bool

	// KeyMetricsEnabled gates per-key tracking.
	KeyMetricsEnabled bool

	// MaxLatencySamples caps every latency buffer. Default: 1000
	MaxLatencySamples int

	// MaxTrackedKeys caps the key table. Default: 1000
	MaxTrackedKeys int
}

// DefaultConfig returns a config with both recording paths enabled.
func DefaultConfig() Config {
	return Config{
		MetricsEnabled:    true,
		KeyMetricsEnabled: true,
		MaxLatencySamples: 1000,
		MaxTrackedKeys:    1000,
	}
}

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Accumulator) {
		if now != nil {
			a.now = now
		}
	}
}

// Accumulator records cache operations into the live Window.
//
// Contract:
// - Concurrency: safe for concurrent use; a single mutex guards the window.
// - Cost: record calls are O(1) amortized and never perform I/O. When the
// relevant flag is off they return without locking.
// - Errors: none; telemetry is best effort.
type Accumulator struct {
	cfg Config
	now func() time.Time

	metricsEnabled    atomic.Bool
	keyMetricsEnabled atomic.Bool

	mu  sync.Mutex
	win *Window
}

// NewAccumulator creates an accumulator with a fresh window.
func NewAccumulator(cfg Config, opts ...Option) *Accumulator {
	if cfg.MaxLatencySamples <= 0 {
		cfg.MaxLatencySamples = 1000
	}
	if cfg.MaxTrackedKeys <= 0 {
		cfg.MaxTrackedKeys = 1000
	}

	a := &Accumulator{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	a.metricsEnabled.Store(cfg.MetricsEnabled)
	a.keyMetricsEnabled.Store(cfg.KeyMetricsEnabled)
	a.win = newWindow(a.now(), cfg.MaxLatencySamples)
	return a
}

// Config returns the accumulator's capacity configuration with the current
// flag values.
func (a *Accumulator) Config() Config {
	cfg := a.cfg
	cfg.MetricsEnabled = a.MetricsEnabled()
	cfg.KeyMetricsEnabled = a.KeyMetricsEnabled()
	return cfg
}

// EnableMetrics toggles aggregate recording.
func (a *Accumulator) EnableMetrics(enabled bool) {
	a.metricsEnabled.Store(enabled)
}

// EnableKeyMetrics toggles per-key recording.
func (a *Accumulator) EnableKeyMetrics(enabled bool) {
	a.keyMetricsEnabled.Store(enabled)
}

// MetricsEnabled reports whether aggregate recording is on.
func (a *Accumulator) MetricsEnabled() bool {
	return a.metricsEnabled.Load()
}

// KeyMetricsEnabled reports whether per-key recording is on.
func (a *Accumulator) KeyMetricsEnabled() bool {
	return a.keyMetricsEnabled.Load()
}

// RecordHit records a read-through hit. An empty key skips per-key tracking.
func (a *Accumulator) RecordHit(latency time.Duration, key string, meta KeyMetadata) {
	a.record(OpHit, toMillis(latency), key, meta)
}

// RecordMiss records a read-through miss.
func (a *Accumulator) RecordMiss(latency time.Duration, key string, meta KeyMetadata) {
	a.record(OpMiss, toMillis(latency), key, meta)
}

// RecordSet records a read-through store of a loaded value.
func (a *Accumulator) RecordSet(latency time.Duration, key string, meta KeyMetadata) {
	a.record(OpSet, toMillis(latency), key, meta)
}

// RecordDelete records a read-through invalidation.
func (a *Accumulator) RecordDelete(latency time.Duration, key string, meta KeyMetadata) {
	a.record(OpDelete, toMillis(latency), key, meta)
}

// RecordNativeSet records a cache-aside set. Native operations are not timed.
func (a *Accumulator) RecordNativeSet(key string, meta KeyMetadata) {
	a.record(OpNativeSet, 0, key, meta)
}

// RecordNativeGet records a cache-aside get.
func (a *Accumulator) RecordNativeGet(key string, meta KeyMetadata) {
	a.record(OpNativeGet, 0, key, meta)
}

// RecordNativeDelete records a cache-aside delete.
func (a *Accumulator) RecordNativeDelete(key string, meta KeyMetadata) {
	a.record(OpNativeDelete, 0, key, meta)
}

// RecordNativeClear records a cache-aside clear.
func (a *Accumulator) RecordNativeClear(key string, meta KeyMetadata) {
	a.record(OpNativeClear, 0, key, meta)
}

// RecordNativeDeleteByTag records a cache-aside delete by tag.
func (a *Accumulator) RecordNativeDeleteByTag(key string, meta KeyMetadata) {
	a.record(OpNativeDeleteByTag, 0, key, meta)
}

// Record dispatches op to the matching Record method. Native operations
// ignore latency.
func (a *Accumulator) Record(op Op, latency time.Duration, key string, meta KeyMetadata) {
	if op.Native() {
		latency = 0
	}
	a.record(op, toMillis(latency), key, meta)
}

// RecordError counts a read-through error.
func (a *Accumulator) RecordError(_ error) {
	if !a.metricsEnabled.Load() {
		return
	}
	a.mu.Lock()
	a.win.counters.Errors++
	a.mu.Unlock()
}

// RecordNativeError counts a native-operation error.
func (a *Accumulator) RecordNativeError(_ error) {
	if !a.metricsEnabled.Load() {
		return
	}
	a.mu.Lock()
	a.win.counters.NativeErrors++
	a.mu.Unlock()
}

func (a *Accumulator) record(op Op, ms float64, key string, meta KeyMetadata) {
	aggregate := a.metricsEnabled.Load()
	perKey := key != "" && a.keyMetricsEnabled.Load()
	if !aggregate && !perKey {
		return
	}
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	if aggregate {
		a.win.record(op, ms)
	}
	if perKey {
		ks := a.win.key(key, now)
		ks.record(op, ms)
		ks.meta = ks.meta.Merge(meta)
		a.win.enforceCapacity(a.cfg.MaxTrackedKeys)
	}
}

// Stats returns the derived snapshot of the live window.
func (a *Accumulator) Stats() Stats {
	now := a.now()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.win.Stats(now)
}

// KeyStats returns a snapshot of every tracked key.
func (a *Accumulator) KeyStats() map[string]KeyStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.win.KeyStats()
}

// TopKeys returns up to n keys with the most traffic, most active first.
// n <= 0 returns every key.
func (a *Accumulator) TopKeys(n int) []KeyStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return snapshots(rankByTraffic(a.win.keys), n)
}

// ColdKeys returns up to n keys ordered least recently accessed first.
// n <= 0 returns every key.
func (a *Accumulator) ColdKeys(n int) []KeyStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return snapshots(rankByRecency(a.win.keys), n)
}

// Reset replaces the live window with an empty one.
func (a *Accumulator) Reset() {
	now := a.now()
	a.mu.Lock()
	a.win = newWindow(now, a.cfg.MaxLatencySamples)
	a.mu.Unlock()
}

// Detach swaps the live window for an empty one and returns the old window.
// The caller owns the returned window.
func (a *Accumulator) Detach() *Window {
	now := a.now()
	a.mu.Lock()
	defer a.mu.Unlock()

	old := a.win
	a.win = newWindow(now, a.cfg.MaxLatencySamples)
	a.win.seq = old.seq
	return old
}

// Restore merges a previously detached window back into the live window,
// as if it had never been detached.
func (a *Accumulator) Restore(w *Window) {
	if w == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.win.absorb(w)
	a.win.enforceCapacity(a.cfg.MaxTrackedKeys)
}

func snapshots(ranked []*keyStat, n int) []KeyStats {
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	out := make([]KeyStats, len(ranked))
	for i, ks := range ranked {
		out[i] = ks.snapshot()
	}
	return out
}
