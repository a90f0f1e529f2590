package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/cachestats/metrics"
	"github.com/jonwraymond/cachestats/store"
	"github.com/jonwraymond/cachestats/store/storetest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return New(client, WithPrefix("test")), mr
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestUnsetMinIsAbsentField(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	bucket := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertAggregate(ctx, &store.AggregateRecord{
		Cache:       "books",
		Period:      store.PeriodHourly,
		BucketStart: bucket,
		Counters:    metrics.Counters{Misses: 1},
	}))

	key := s.aggregateKey("books", store.PeriodHourly, bucket.UnixMicro())
	require.True(t, mr.Exists(key))
	require.Equal(t, "", mr.HGet(key, "hit_min"))
	require.Equal(t, "1", mr.HGet(key, "misses"))
}

func TestKeysShareHashTag(t *testing.T) {
	s, _ := newTestStore(t)
	require.Equal(t, "test:{books}:keys", s.keyIndex("books"))
	require.Equal(t, "test:{books}:key:a:b", s.keyKey("books", "a:b"))
	require.Equal(t, "test:{books}:agg:daily:42", s.aggregateKey("books", store.PeriodDaily, 42))
}

func TestDeleteKeysClearsIndex(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertKey(ctx, &store.KeyRecord{Cache: "books", Key: "k", LastAccessed: time.Now()}))
	require.True(t, mr.Exists(s.keyIndex("books")))

	require.NoError(t, s.DeleteKeys(ctx, "books"))
	require.False(t, mr.Exists(s.keyIndex("books")))
	require.False(t, mr.Exists(s.keyKey("books", "k")))
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.Addr = mr.Addr()

	s, err := Dial(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.Equal(t, DefaultPrefix, s.prefix)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decodeKey(map[string]string{"cache": "c", "key": "k", "hits": "many"})
	require.Error(t, err)
}
