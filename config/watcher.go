package config

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jonwraymond/cachestats/observe"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher holds the current configuration and reloads it when the file
// changes. A file that fails to load or validate is logged and ignored; the
// previous configuration stays current.
type Watcher struct {
	current  atomic.Pointer[Config]
	path     string
	debounce time.Duration
	logger   observe.Logger

	mu       sync.Mutex
	onChange []func(*Config)
	fsw      *fsnotify.Watcher
	done     chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the logger for reload outcomes.
func WithWatcherLogger(l observe.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher loads path and returns a Watcher holding it. Call Watch to
// start following changes.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     path,
		debounce: DefaultDebounce,
		logger:   observe.Noop().Logger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.current.Store(cfg)
	return w, nil
}

// Current returns the configuration last loaded successfully.
func (w *Watcher) Current() *Config {
	return w.current.Load()
}

// OnChange registers fn to run after each reload that changed the file's
// effective configuration. Callbacks run on the watcher goroutine.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Watch follows the file until ctx ends or Close is called. The parent
// directory is watched so that editors replacing the file by rename are
// seen too.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return err
	}

	w.mu.Lock()
	w.fsw = fsw
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.loop(ctx, fsw, w.done)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	name := filepath.Clean(w.path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = fsw.Close()
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error(ctx, "config watcher error", observe.Field{Key: "error", Value: err})
		}
	}
}

// Reload loads the file now, as a change event would.
func (w *Watcher) Reload() {
	w.reload()
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error(context.Background(), "config reload failed, keeping current",
			observe.Field{Key: "path", Value: w.path},
			observe.Field{Key: "error", Value: err},
		)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if cfg.Equal(w.current.Load()) {
		return
	}
	w.current.Store(cfg)
	w.logger.Info(context.Background(), "config reloaded", observe.Field{Key: "path", Value: w.path})
	for _, fn := range w.onChange {
		fn(cfg)
	}
}

// Close stops watching and waits for the loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	fsw, done := w.fsw, w.done
	w.fsw = nil
	w.mu.Unlock()

	if fsw == nil {
		return nil
	}
	err := fsw.Close()
	<-done
	return err
}
