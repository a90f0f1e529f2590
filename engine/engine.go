package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/cachestats/cachekey"
	"github.com/jonwraymond/cachestats/cachetag"
	"github.com/jonwraymond/cachestats/health"
	"github.com/jonwraymond/cachestats/metrics"
	"github.com/jonwraymond/cachestats/observe"
	"github.com/jonwraymond/cachestats/persist"
	"github.com/jonwraymond/cachestats/resilience"
	"github.com/jonwraymond/cachestats/store"
)

// Engine is the telemetry and key-synthesis engine of one named cache.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Hot path: key, tag and Record methods touch memory only.
// - Lifecycle: Start launches the flush scheduler; Close performs a final
// flush and releases the store and any observer the engine created.
type Engine struct {
	cache string

	keys  *cachekey.Synthesizer
	tags  *cachetag.Resolver
	acc   *metrics.Accumulator
	coord *persist.Coordinator
	sched *persist.Scheduler
	store store.Store

	obs          observe.Observer
	ownsObserver bool
	otel         observe.Metrics
	logger       observe.Logger
	meta         observe.CacheMeta

	health *health.Aggregator

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

type options struct {
	policy        cachekey.Policy
	metrics       metrics.Config
	interval      time.Duration
	obs           observe.Observer
	ownsObserver  bool
	guard         *resilience.Guard
	storeName     string
	now           func() time.Time
	healthTimeout time.Duration
}

// Option configures an Engine.
type Option func(*options)

// WithPolicy sets the key policy used when a call passes no template.
func WithPolicy(p cachekey.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithMetricsConfig sizes the live window and sets the initial flags.
func WithMetricsConfig(cfg metrics.Config) Option {
	return func(o *options) { o.metrics = cfg }
}

// WithFlushInterval sets the scheduler interval (default persist.DefaultInterval).
func WithFlushInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithObserver sets the telemetry observer. The caller keeps ownership.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.obs = obs
		}
	}
}

// WithGuard wraps store calls with retry and a circuit breaker.
func WithGuard(g *resilience.Guard) Option {
	return func(o *options) { o.guard = g }
}

// WithStoreName labels telemetry with the backend name.
func WithStoreName(name string) Option {
	return func(o *options) { o.storeName = name }
}

// WithClock replaces time.Now for the window, the buckets and health.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithHealthTimeout bounds Health (default 5s).
func WithHealthTimeout(d time.Duration) Option {
	return func(o *options) { o.healthTimeout = d }
}

func ownedObserver(obs observe.Observer) Option {
	return func(o *options) {
		o.obs = obs
		o.ownsObserver = true
	}
}

// New creates an engine for cache persisting into st. The engine takes
// ownership of st and closes it on Close.
func New(cache string, st store.Store, opts ...Option) (*Engine, error) {
	o := options{
		metrics:       metrics.DefaultConfig(),
		interval:      persist.DefaultInterval,
		obs:           observe.Noop(),
		now:           time.Now,
		healthTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	meta := observe.CacheMeta{Name: cache, Store: o.storeName}
	otel, err := observe.NewMetrics(o.obs.Meter())
	if err != nil {
		return nil, fmt.Errorf("engine: create instruments: %w", err)
	}
	logger := o.obs.Logger()
	mw := observe.NewMiddleware(observe.NewTracer(o.obs.Tracer()), otel, logger)

	acc := metrics.NewAccumulator(o.metrics, metrics.WithClock(o.now))
	coord, err := persist.NewCoordinator(cache, acc, st,
		persist.WithGuard(o.guard),
		persist.WithMiddleware(mw),
		persist.WithLogger(logger),
		persist.WithStoreName(o.storeName),
		persist.WithClock(o.now),
	)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	sched := persist.NewScheduler(coord, o.interval)

	e := &Engine{
		cache:        cache,
		keys:         cachekey.NewSynthesizer(o.policy),
		tags:         cachetag.NewResolver(),
		acc:          acc,
		coord:        coord,
		sched:        sched,
		store:        st,
		obs:          o.obs,
		ownsObserver: o.ownsObserver,
		otel:         otel,
		logger:       logger.WithCache(meta),
		meta:         meta,
		health:       health.NewAggregator(health.AggregatorConfig{Timeout: o.healthTimeout, Parallel: true}),
	}
	e.health.Register("store", health.NewStoreChecker(st))
	e.health.Register("flush", health.NewFlushChecker(health.FlushCheckerConfig{
		Source:  sched,
		Breaker: o.guard.Breaker(),
		Since:   o.now(),
		Now:     o.now,
	}))
	return e, nil
}

// Cache returns the cache name.
func (e *Engine) Cache() string {
	return e.cache
}

// Start launches the background flush scheduler. The scheduler stops when
// ctx ends or on Close.
func (e *Engine) Start(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if err := e.sched.Start(ctx); err != nil {
		return err
	}
	e.logger.Info(ctx, "flush scheduler started",
		observe.Field{Key: "interval", Value: e.sched.Interval()},
	)
	return nil
}

// Close stops the scheduler, flushes what is left of the live window, and
// releases the store and an observer created by Open. Later calls return
// the result of the first.
func (e *Engine) Close(ctx context.Context) error {
	e.closeOnce.Do(func() {
		var errs []error
		if err := e.sched.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
		}
		if _, err := e.sched.FlushNow(ctx); err != nil {
			errs = append(errs, fmt.Errorf("final flush: %w", err))
		}
		e.closed.Store(true)
		if err := e.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		if e.ownsObserver {
			if err := e.obs.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown observer: %w", err))
			}
		}
		e.closeErr = errors.Join(errs...)
		if e.closeErr != nil {
			e.logger.Error(ctx, "engine closed with errors", observe.Field{Key: "error", Value: e.closeErr})
		}
	})
	return e.closeErr
}

// SynthesizeKey returns the cache key for d, or ok=false when d must not be
// cached. An empty tmpl uses the engine's policy.
func (e *Engine) SynthesizeKey(d cachekey.Descriptor, snap cachekey.Snapshot, tmpl cachekey.Template, args ...any) (string, bool) {
	return e.keys.Synthesize(d, snap, tmpl, args...)
}

// ResolveTags returns the invalidation tags for payload and params.
func (e *Engine) ResolveTags(descs []cachetag.Descriptor, payload any, params map[string]any) []string {
	return e.tags.Resolve(descs, payload, params)
}

// Health runs the store and flush checks.
func (e *Engine) Health(ctx context.Context) health.Report {
	return e.health.Run(ctx)
}

// Collector exports the live window to Prometheus.
func (e *Engine) Collector() *metrics.Collector {
	return metrics.NewCollector(e.cache, e.acc)
}
