package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/cachestats/config"
	"github.com/jonwraymond/cachestats/metrics"
	"github.com/jonwraymond/cachestats/observe"
	"github.com/jonwraymond/cachestats/resilience"
	"github.com/jonwraymond/cachestats/store"
	"github.com/jonwraymond/cachestats/store/memstore"
	"github.com/jonwraymond/cachestats/store/redisstore"
	"github.com/jonwraymond/cachestats/store/sqlstore"
)

// Open builds an engine from a validated configuration: it connects the
// configured store, sets up the observer and wraps store calls in the
// configured retry and circuit breaker. The scheduler is not started.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("engine: observer: %w", err)
	}
	st, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, errors.Join(err, obs.Shutdown(ctx))
	}

	base := []Option{
		ownedObserver(obs),
		WithPolicy(cfg.Keys),
		WithMetricsConfig(metrics.Config{
			MetricsEnabled:    cfg.Metrics.Enabled,
			KeyMetricsEnabled: cfg.Metrics.KeyMetricsEnabled,
			MaxLatencySamples: cfg.Metrics.MaxLatencySamples,
			MaxTrackedKeys:    cfg.Metrics.MaxTrackedKeys,
		}),
		WithFlushInterval(cfg.Metrics.FlushInterval),
		WithGuard(NewGuard(cfg.Resilience)),
		WithStoreName(cfg.Store.Driver),
	}
	e, err := New(cfg.CacheName, st, append(base, opts...)...)
	if err != nil {
		return nil, errors.Join(err, st.Close(), obs.Shutdown(ctx))
	}
	return e, nil
}

// OpenStore connects the backend named by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Driver {
	case config.DriverMemory, "":
		st = memstore.New()
	case config.DriverSQLite:
		var s *sqlstore.Store
		if s, err = sqlstore.OpenSQLite(ctx, cfg.DSN); err == nil {
			st = s
		}
	case config.DriverPostgres:
		var s *sqlstore.Store
		s, err = sqlstore.OpenPostgres(ctx, cfg.DSN, sqlstore.Options{
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
		})
		if err == nil {
			st = s
		}
	case config.DriverRedis:
		var s *redisstore.Store
		if s, err = redisstore.Dial(ctx, cfg.Redis); err == nil {
			st = s
		}
	default:
		err = fmt.Errorf("%w: store.driver %q", config.ErrInvalidConfig, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("engine: open %s store: %w", cfg.Driver, err)
	}
	return st, nil
}

// NewGuard builds the retry loop and circuit breaker for store calls.
func NewGuard(cfg config.ResilienceConfig) *resilience.Guard {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  cfg.MaxFailures,
		ResetTimeout: cfg.ResetTimeout,
	})
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: cfg.InitialDelay,
		Jitter:       true,
	})
	return resilience.NewGuard(breaker, retry)
}

// Apply switches the recording flags to those of cfg. Sizing, store and
// interval changes need a new engine.
func (e *Engine) Apply(cfg *config.Config) {
	if cfg == nil {
		return
	}
	e.EnableMetrics(cfg.Metrics.Enabled)
	e.EnableKeyMetrics(cfg.Metrics.KeyMetricsEnabled)
	e.logger.Info(context.Background(), "recording flags applied",
		observe.Field{Key: "metrics_enabled", Value: cfg.Metrics.Enabled},
		observe.Field{Key: "key_metrics_enabled", Value: cfg.Metrics.KeyMetricsEnabled},
	)
}

// Follow applies every configuration the watcher reloads.
func (e *Engine) Follow(w *config.Watcher) {
	w.OnChange(e.Apply)
}
