package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/cachestats/cachekey"
)

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "cachestats.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader("cache_name: products\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := Default()
	want.CacheName = "products"
	if !cfg.Equal(&want) {
		t.Errorf("cfg = %+v, want defaults %+v", *cfg, want)
	}
	if cfg.Metrics.FlushInterval != 10*time.Second || cfg.Metrics.MaxTrackedKeys != 1000 {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
}

func TestParse_FullDocument(t *testing.T) {
	doc := `
cache_name: orders
metrics:
  enabled: false
  key_metrics_enabled: true
  max_latency_samples: 250
  max_tracked_keys: 50
  flush_interval: 30s
keys:
  tenant_aware: true
  user_aware: true
store:
  driver: redis
  addr: redis.internal:6380
  db: 2
  prefix: stats
resilience:
  max_attempts: 5
  initial_delay: 50ms
  max_failures: 3
  reset_timeout: 1m
observe:
  service_name: orders-cache
  logging:
    enabled: true
    level: debug
`
	cfg, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Metrics.Enabled || !cfg.Metrics.KeyMetricsEnabled || cfg.Metrics.FlushInterval != 30*time.Second {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
	if got := cfg.Keys.KeyTemplate(); got != cachekey.Template("{tenant}:{user}:{hash}") {
		t.Errorf("template = %q", got)
	}
	r := cfg.Store.Redis
	if cfg.Store.Driver != DriverRedis || r.Addr != "redis.internal:6380" || r.DB != 2 || r.Prefix != "stats" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if r.PoolSize != 10 {
		t.Errorf("unset redis pool_size lost its default: %d", r.PoolSize)
	}
	if cfg.Resilience.ResetTimeout != time.Minute || cfg.Resilience.InitialDelay != 50*time.Millisecond {
		t.Errorf("resilience = %+v", cfg.Resilience)
	}
	if cfg.Observe.ServiceName != "orders-cache" || cfg.Observe.Logging.Level != "debug" {
		t.Errorf("observe = %+v", cfg.Observe)
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader("cache_name: x\nflush_every: 5s\n"))
	if err == nil || !strings.Contains(err.Error(), "flush_every") {
		t.Errorf("err = %v, want unknown field error", err)
	}
}

func TestParse_ResolvesSecrets(t *testing.T) {
	t.Setenv("CS_TEST_DSN", "postgres://stats:pw@db/stats?sslmode=disable")
	t.Setenv("CS_TEST_CACHE", "catalog")

	cfg, err := Parse(strings.NewReader(`
cache_name: ${CS_TEST_CACHE}
store:
  driver: postgres
  dsn: secretref:env:CS_TEST_DSN
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.CacheName != "catalog" || cfg.Store.DSN != "postgres://stats:pw@db/stats?sslmode=disable" {
		t.Errorf("cache_name=%q dsn=%q", cfg.CacheName, cfg.Store.DSN)
	}
}

func TestParse_MissingSecret(t *testing.T) {
	_, err := Parse(strings.NewReader("cache_name: x\nstore:\n  driver: sqlite\n  dsn: ${CS_TEST_UNSET_DSN}\n"))
	if err == nil || !strings.Contains(err.Error(), "CS_TEST_UNSET_DSN") {
		t.Errorf("err = %v, want missing variable error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing cache name", func(c *Config) { c.CacheName = "" }, "cache_name"},
		{"zero samples", func(c *Config) { c.Metrics.MaxLatencySamples = 0 }, "max_latency_samples"},
		{"negative keys", func(c *Config) { c.Metrics.MaxTrackedKeys = -1 }, "max_tracked_keys"},
		{"zero interval", func(c *Config) { c.Metrics.FlushInterval = 0 }, "flush_interval"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, "store.driver"},
		{"sqlite without dsn", func(c *Config) { c.Store.Driver = DriverSQLite }, "store.dsn"},
		{"redis without addr", func(c *Config) { c.Store.Driver = DriverRedis; c.Store.Redis.Addr = "" }, "store.addr"},
		{"no attempts", func(c *Config) { c.Resilience.MaxAttempts = 0 }, "max_attempts"},
		{"bad log level", func(c *Config) { c.Observe.Logging.Level = "loud" }, "observe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.CacheName = "products"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Metrics.MaxTrackedKeys = 0
	err := cfg.Validate()
	if !strings.Contains(err.Error(), "cache_name") || !strings.Contains(err.Error(), "max_tracked_keys") {
		t.Errorf("err = %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cache_name: products\nstore:\n  driver: sqlite\n  dsn: "+filepath.Join(dir, "stats.db")+"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite {
		t.Errorf("driver = %q", cfg.Store.Driver)
	}

	if _, err := Load(filepath.Join(dir, "absent.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestConfig_Equal(t *testing.T) {
	a, b := Default(), Default()
	if !a.Equal(&b) {
		t.Error("defaults should be equal")
	}
	b.Metrics.Enabled = false
	if a.Equal(&b) {
		t.Error("differing configs reported equal")
	}
	var nilCfg *Config
	if nilCfg.Equal(&a) || !nilCfg.Equal(nil) {
		t.Error("nil comparison wrong")
	}
}
