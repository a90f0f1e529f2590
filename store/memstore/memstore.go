// Package memstore is an in-process store.Store.
//
// Rows live in maps guarded by a RWMutex and are lost when the process
// exits. It suits tests, single-process deployments and the default
// configuration when no durable driver is configured.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonwraymond/cachestats/store"
)

type aggregateID struct {
	cache  string
	period store.Period
	bucket int64
}

type keyID struct {
	cache string
	key   string
}

// Store is an in-memory store.Store.
type Store struct {
	mu         sync.RWMutex
	closed     bool
	aggregates map[aggregateID]*store.AggregateRecord
	keys       map[keyID]*store.KeyRecord
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		aggregates: make(map[aggregateID]*store.AggregateRecord),
		keys:       make(map[keyID]*store.KeyRecord),
	}
}

func aggID(cache string, period store.Period, bucket time.Time) aggregateID {
	return aggregateID{cache: cache, period: period, bucket: bucket.UTC().UnixNano()}
}

// UpsertAggregate implements store.Store.
func (s *Store) UpsertAggregate(ctx context.Context, r *store.AggregateRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	s.putAggregate(r)
	return nil
}

func (s *Store) putAggregate(r *store.AggregateRecord) {
	c := r.Clone()
	c.BucketStart = c.BucketStart.UTC()
	s.aggregates[aggID(r.Cache, r.Period, r.BucketStart)] = c
}

// ReadAggregate implements store.Store.
func (s *Store) ReadAggregate(ctx context.Context, cache string, period store.Period, bucket time.Time) (*store.AggregateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	r, ok := s.aggregates[aggID(cache, period, bucket)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.Clone(), nil
}

// QueryAggregates implements store.Store.
func (s *Store) QueryAggregates(ctx context.Context, cache string, period store.Period, from, to time.Time) ([]*store.AggregateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}

	var out []*store.AggregateRecord
	for id, r := range s.aggregates {
		if id.cache != cache || id.period != period {
			continue
		}
		if store.InRange(r.BucketStart, from, to) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BucketStart.After(out[j].BucketStart) })
	return out, nil
}

// UpsertKey implements store.Store.
func (s *Store) UpsertKey(ctx context.Context, r *store.KeyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	s.keys[keyID{cache: r.Cache, key: r.Key}] = r.Clone()
	return nil
}

// ReadKey implements store.Store.
func (s *Store) ReadKey(ctx context.Context, cache, key string) (*store.KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	r, ok := s.keys[keyID{cache: cache, key: key}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.Clone(), nil
}

// QueryKeys implements store.Store.
func (s *Store) QueryKeys(ctx context.Context, cache string, filter store.KeyFilter) ([]*store.KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []*store.KeyRecord
	closed := s.closed
	for id, r := range s.keys {
		if id.cache == cache {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()
	if closed {
		return nil, store.ErrClosed
	}
	return filter.Apply(out), nil
}

// Commit implements store.Store. Rows are validated before any is applied.
func (s *Store) Commit(ctx context.Context, b *store.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	for _, r := range b.Aggregates {
		s.putAggregate(r)
	}
	for _, r := range b.Keys {
		s.keys[keyID{cache: r.Cache, key: r.Key}] = r.Clone()
	}
	return nil
}

// DeleteAggregates implements store.Store.
func (s *Store) DeleteAggregates(ctx context.Context, cache string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	for id := range s.aggregates {
		if id.cache == cache {
			delete(s.aggregates, id)
		}
	}
	return nil
}

// DeleteKeys implements store.Store.
func (s *Store) DeleteKeys(ctx context.Context, cache string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	for id := range s.keys {
		if id.cache == cache {
			delete(s.keys, id)
		}
	}
	return nil
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
