package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/cachestats/cachekey"
	"github.com/jonwraymond/cachestats/observe"
	"github.com/jonwraymond/cachestats/secret"
	"github.com/jonwraymond/cachestats/store/redisstore"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// ValidDrivers lists the accepted store.driver values.
var ValidDrivers = []string{DriverMemory, DriverSQLite, DriverPostgres, DriverRedis}

// Config is the root of the YAML document.
type Config struct {
	CacheName  string           `yaml:"cache_name"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Keys       cachekey.Policy  `yaml:"keys"`
	Store      StoreConfig      `yaml:"store"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Observe    observe.Config   `yaml:"observe"`
}

// MetricsConfig sizes and gates the live window.
type MetricsConfig struct {
	Enabled           bool          `yaml:"enabled"`
	KeyMetricsEnabled bool          `yaml:"key_metrics_enabled"`
	MaxLatencySamples int           `yaml:"max_latency_samples"`
	MaxTrackedKeys    int           `yaml:"max_tracked_keys"`
	FlushInterval     time.Duration `yaml:"flush_interval"`
}

// StoreConfig selects the durable backend. DSN is used by sqlite (a file
// path) and postgres; the inlined redis fields by redis.
type StoreConfig struct {
	Driver       string            `yaml:"driver"`
	DSN          string            `yaml:"dsn"`
	MaxOpenConns int               `yaml:"max_open_conns"`
	MaxIdleConns int               `yaml:"max_idle_conns"`
	Redis        redisstore.Config `yaml:",inline"`
}

// ResilienceConfig tunes the retry loop and circuit breaker around store calls.
type ResilienceConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// Default returns the configuration used for every field a file omits.
func Default() Config {
	return Config{
		Metrics: MetricsConfig{
			Enabled:           true,
			KeyMetricsEnabled: true,
			MaxLatencySamples: 1000,
			MaxTrackedKeys:    1000,
			FlushInterval:     10 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverMemory,
			Redis:  redisstore.DefaultConfig(),
		},
		Resilience: ResilienceConfig{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
		},
		Observe: observe.Config{
			ServiceName: "cachestats",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1},
			Metrics:     observe.MetricsConfig{Exporter: "none"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
	}
}

// Load reads, decodes, resolves and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over Default, resolves secrets with the
// default resolver and validates the result. Unknown fields are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Resolve(context.Background(), secret.DefaultResolver()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve expands environment and secret references in the credential
// fields.
func (c *Config) Resolve(ctx context.Context, r *secret.Resolver) error {
	err := r.ResolveAll(ctx,
		&c.CacheName,
		&c.Store.DSN,
		&c.Store.Redis.Addr,
		&c.Store.Redis.Password,
	)
	if err != nil {
		return fmt.Errorf("resolve secrets: %w", err)
	}
	return nil
}

// Validate reports every problem at once, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.CacheName == "" {
		add("cache_name is required")
	}
	if c.Metrics.MaxLatencySamples <= 0 {
		add("metrics.max_latency_samples must be positive, got %d", c.Metrics.MaxLatencySamples)
	}
	if c.Metrics.MaxTrackedKeys <= 0 {
		add("metrics.max_tracked_keys must be positive, got %d", c.Metrics.MaxTrackedKeys)
	}
	if c.Metrics.FlushInterval <= 0 {
		add("metrics.flush_interval must be positive, got %s", c.Metrics.FlushInterval)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			add("store.dsn is required for driver %q", c.Store.Driver)
		}
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			add("store.addr is required for driver %q", c.Store.Driver)
		}
	default:
		add("store.driver %q is not one of %v", c.Store.Driver, ValidDrivers)
	}

	if c.Resilience.MaxAttempts < 1 {
		add("resilience.max_attempts must be at least 1, got %d", c.Resilience.MaxAttempts)
	}
	if c.Resilience.MaxFailures < 1 {
		add("resilience.max_failures must be at least 1, got %d", c.Resilience.MaxFailures)
	}

	if err := c.Observe.Validate(); err != nil {
		add("observe: %w", err)
	}
	return errors.Join(errs...)
}

// Equal reports whether two configurations are identical.
func (c *Config) Equal(o *Config) bool {
	if c == nil || o == nil {
		return c == o
	}
	return *c == *o
}
