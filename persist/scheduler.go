package persist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/cachestats/observe"
)

// DefaultInterval is the flush interval used when none is configured.
const DefaultInterval = 10 * time.Second

// Scheduler drains a Coordinator on a fixed interval.
//
// Contract:
// - Concurrency: safe for concurrent use. At most one flush runs at a time;
// concurrent FlushNow callers share the in-flight flush.
// - Lifecycle: Start launches the loop; Stop ends it and waits for the loop
// to exit. A stopped scheduler may be started again.
type Scheduler struct {
	coord    *Coordinator
	interval time.Duration
	logger   observe.Logger

	sf      singleflight.Group
	running atomic.Bool

	lastFlushed atomic.Int64 // unix nanos of the last successful flush, 0 if none
	lastErr     atomic.Pointer[error]

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewScheduler creates a scheduler. A non-positive interval uses
// DefaultInterval. The scheduler logs through the coordinator's logger.
func NewScheduler(c *Coordinator, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		coord:    c,
		interval: interval,
		logger:   c.logger,
	}
}

// Interval returns the flush interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Start launches the flush loop. The loop ends on Stop or when ctx is done.
// Flushes in progress are not canceled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return ErrSchedulerRunning
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(ctx, s.stop, s.done)
	return nil
}

// Stop ends the loop and waits for it to exit or for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	flushCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ticker.C:
			if _, err := s.TryFlush(flushCtx); errors.Is(err, ErrFlushInProgress) {
				s.logger.Debug(flushCtx, "flush skipped: previous flush still running")
			}
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// TryFlush drains the accumulator unless a flush is already running, in
// which case it returns ErrFlushInProgress.
func (s *Scheduler) TryFlush(ctx context.Context) (Outcome, error) {
	if s.running.Load() {
		return Outcome{}, ErrFlushInProgress
	}
	return s.FlushNow(ctx)
}

// FlushNow drains the accumulator, joining the in-flight flush if there is
// one. The shared flush runs with the context of the caller that started it.
func (s *Scheduler) FlushNow(ctx context.Context) (Outcome, error) {
	v, err, _ := s.sf.Do("flush", func() (any, error) {
		s.running.Store(true)
		defer s.running.Store(false)

		out, err := s.coord.Drain(ctx)
		if err != nil {
			s.lastErr.Store(&err)
			return out, err
		}
		s.lastErr.Store(nil)
		s.lastFlushed.Store(out.At.UnixNano())
		return out, nil
	})
	out, _ := v.(Outcome)
	return out, err
}

// LastFlushedAt returns the time of the last successful flush, including
// skipped ones, or the zero time.
func (s *Scheduler) LastFlushedAt() time.Time {
	ns := s.lastFlushed.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

// LastError returns the error of the last flush, nil after a success.
func (s *Scheduler) LastError() error {
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Coordinator returns the scheduler's coordinator.
func (s *Scheduler) Coordinator() *Coordinator {
	return s.coord
}
