// Package redisstore is a store.Store backed by Redis hashes.
//
// Each row is one hash. Sorted sets index aggregate rows by bucket start and
// key rows by last access, so range queries never scan the keyspace. All keys
// of one cache share a hash tag, keeping a cache on a single cluster slot so
// row writes can run in one MULTI.
//
// Unset minimum and maximum latencies are absent hash fields.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jonwraymond/cachestats/store"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "cachestats"

// Config holds connection settings for Dial.
type Config struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Prefix       string        `yaml:"prefix"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PoolSize     int           `yaml:"pool_size"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Prefix:       DefaultPrefix,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	}
}

// Store implements store.Store on Redis.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix (default: "cachestats").
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New wraps an existing client. Close closes the client.
func New(client goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial connects to a single Redis node and verifies the connection.
func Dial(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, WithPrefix(cfg.Prefix)), nil
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) scope(cache string) string {
	return s.prefix + ":{" + cache + "}"
}

func (s *Store) aggregateIndex(cache string, period store.Period) string {
	return s.scope(cache) + ":agg:" + string(period)
}

func (s *Store) aggregateKey(cache string, period store.Period, bucket int64) string {
	return s.aggregateIndex(cache, period) + ":" + strconv.FormatInt(bucket, 10)
}

func (s *Store) keyIndex(cache string) string {
	return s.scope(cache) + ":keys"
}

func (s *Store) keyKey(cache, key string) string {
	return s.scope(cache) + ":key:" + key
}

// UpsertAggregate implements store.Store.
func (s *Store) UpsertAggregate(ctx context.Context, r *store.AggregateRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		s.queueAggregate(ctx, pipe, r)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis upsert aggregate: %w", err)
	}
	return nil
}

// ReadAggregate implements store.Store.
func (s *Store) ReadAggregate(ctx context.Context, cache string, period store.Period, bucket time.Time) (*store.AggregateRecord, error) {
	m, err := s.client.HGetAll(ctx, s.aggregateKey(cache, period, toMicros(bucket))).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read aggregate: %w", err)
	}
	if len(m) == 0 {
		return nil, store.ErrNotFound
	}
	return decodeAggregate(m)
}

// QueryAggregates implements store.Store.
func (s *Store) QueryAggregates(ctx context.Context, cache string, period store.Period, from, to time.Time) ([]*store.AggregateRecord, error) {
	members, err := s.client.ZRevRangeByScore(ctx, s.aggregateIndex(cache, period), scoreRange(from, to)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis query aggregates: %w", err)
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = s.aggregateIndex(cache, period) + ":" + m
	}
	hashes, err := s.loadHashes(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("redis query aggregates: %w", err)
	}

	out := make([]*store.AggregateRecord, 0, len(hashes))
	for _, m := range hashes {
		r, err := decodeAggregate(m)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// UpsertKey implements store.Store.
func (s *Store) UpsertKey(ctx context.Context, r *store.KeyRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		s.queueKey(ctx, pipe, r)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis upsert key: %w", err)
	}
	return nil
}

// Commit implements store.Store with a single MULTI/EXEC.
func (s *Store) Commit(ctx context.Context, b *store.Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, r := range b.Aggregates {
			s.queueAggregate(ctx, pipe, r)
		}
		for _, r := range b.Keys {
			s.queueKey(ctx, pipe, r)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis commit: %w", err)
	}
	return nil
}

func (s *Store) queueAggregate(ctx context.Context, pipe goredis.Pipeliner, r *store.AggregateRecord) {
	bucket := toMicros(r.BucketStart)
	hashKey := s.aggregateKey(r.Cache, r.Period, bucket)
	pipe.Del(ctx, hashKey)
	pipe.HSet(ctx, hashKey, encodeAggregate(r))
	pipe.ZAdd(ctx, s.aggregateIndex(r.Cache, r.Period), goredis.Z{
		Score:  float64(bucket),
		Member: strconv.FormatInt(bucket, 10),
	})
}

func (s *Store) queueKey(ctx context.Context, pipe goredis.Pipeliner, r *store.KeyRecord) {
	hashKey := s.keyKey(r.Cache, r.Key)
	pipe.Del(ctx, hashKey)
	pipe.HSet(ctx, hashKey, encodeKey(r))
	pipe.ZAdd(ctx, s.keyIndex(r.Cache), goredis.Z{
		Score:  float64(toMicros(r.LastAccessed)),
		Member: r.Key,
	})
}

// ReadKey implements store.Store.
func (s *Store) ReadKey(ctx context.Context, cache, key string) (*store.KeyRecord, error) {
	m, err := s.client.HGetAll(ctx, s.keyKey(cache, key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read key: %w", err)
	}
	if len(m) == 0 {
		return nil, store.ErrNotFound
	}
	return decodeKey(m)
}

// QueryKeys implements store.Store. The last-access range is served by the
// index; the remaining criteria are applied to the loaded rows.
func (s *Store) QueryKeys(ctx context.Context, cache string, f store.KeyFilter) ([]*store.KeyRecord, error) {
	var members []string
	if f.Key != "" {
		members = []string{f.Key}
	} else {
		var err error
		members, err = s.client.ZRangeByScore(ctx, s.keyIndex(cache), scoreRange(f.AccessedFrom, f.AccessedTo)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis query keys: %w", err)
		}
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = s.keyKey(cache, m)
	}
	hashes, err := s.loadHashes(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("redis query keys: %w", err)
	}

	out := make([]*store.KeyRecord, 0, len(hashes))
	for _, m := range hashes {
		r, err := decodeKey(m)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return f.Apply(out), nil
}

// DeleteAggregates implements store.Store.
func (s *Store) DeleteAggregates(ctx context.Context, cache string) error {
	for _, period := range store.Periods {
		index := s.aggregateIndex(cache, period)
		members, err := s.client.ZRange(ctx, index, 0, -1).Result()
		if err != nil {
			return fmt.Errorf("redis delete aggregates: %w", err)
		}
		keys := make([]string, 0, len(members)+1)
		for _, m := range members {
			keys = append(keys, index+":"+m)
		}
		keys = append(keys, index)
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis delete aggregates: %w", err)
		}
	}
	return nil
}

// DeleteKeys implements store.Store.
func (s *Store) DeleteKeys(ctx context.Context, cache string) error {
	index := s.keyIndex(cache)
	members, err := s.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("redis delete keys: %w", err)
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, s.keyKey(cache, m))
	}
	keys = append(keys, index)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete keys: %w", err)
	}
	return nil
}

// loadHashes fetches hashes in one pipeline, skipping keys that vanished
// since the index was read.
func (s *Store) loadHashes(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmds := make([]*goredis.MapStringStringCmd, len(keys))
	_, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = pipe.HGetAll(ctx, k)
		}
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, err
	}

	out := make([]map[string]string, 0, len(keys))
	for _, cmd := range cmds {
		m, err := cmd.Result()
		if err != nil {
			return nil, err
		}
		if len(m) > 0 {
			out = append(out, m)
		}
	}
	return out, nil
}

func scoreRange(from, to time.Time) *goredis.ZRangeBy {
	by := &goredis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if !from.IsZero() {
		by.Min = strconv.FormatInt(toMicros(from), 10)
	}
	if !to.IsZero() {
		by.Max = strconv.FormatInt(toMicros(to), 10)
	}
	return by
}
