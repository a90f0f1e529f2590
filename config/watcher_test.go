package config

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/cachestats/observe"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatcher_Reload(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cache_name: products\n")
	logs := &syncBuffer{}
	w, err := NewWatcher(path, WithWatcherLogger(observe.NewLoggerWithWriter("info", logs)))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	var changes []*Config
	w.OnChange(func(c *Config) { changes = append(changes, c) })

	w.Reload()
	if len(changes) != 0 {
		t.Fatalf("unchanged file fired OnChange")
	}

	if err := os.WriteFile(path, []byte("cache_name: products\nmetrics:\n  enabled: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	w.Reload()
	if len(changes) != 1 || changes[0].Metrics.Enabled {
		t.Fatalf("changes = %+v", changes)
	}
	if w.Current().Metrics.Enabled {
		t.Error("Current not updated")
	}

	if err := os.WriteFile(path, []byte("cache_name: \"\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	w.Reload()
	if len(changes) != 1 || w.Current().CacheName != "products" {
		t.Errorf("invalid file replaced config: %+v", w.Current())
	}
	if !strings.Contains(logs.String(), "config reload failed") {
		t.Errorf("logs = %s", logs.String())
	}
}

func TestWatcher_FollowsFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cache_name: products\n")
	w, err := NewWatcher(path, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	changed := make(chan *Config, 4)
	w.OnChange(func(c *Config) { changed <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	if err := os.WriteFile(path, []byte("cache_name: products\nmetrics:\n  key_metrics_enabled: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changed:
		if c.Metrics.KeyMetricsEnabled {
			t.Errorf("reloaded config = %+v", c.Metrics)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatcher_CloseWithoutWatch(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cache_name: products\n")
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
