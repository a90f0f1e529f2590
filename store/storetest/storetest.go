// Package storetest is a conformance suite for store.Store backends.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/cachestats/metrics"
	"github.com/jonwraymond/cachestats/store"
)

// Factory opens an empty store for one subtest. The suite closes it.
type Factory func(t *testing.T) store.Store

var base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

// Run exercises every store.Store method against stores from open.
func Run(t *testing.T, open Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"AggregateRoundTrip", testAggregateRoundTrip},
		{"AggregateUnsetMinMax", testAggregateUnsetMinMax},
		{"AggregateNotFound", testAggregateNotFound},
		{"AggregateUpsertReplaces", testAggregateUpsertReplaces},
		{"QueryAggregates", testQueryAggregates},
		{"KeyRoundTrip", testKeyRoundTrip},
		{"KeyNotFound", testKeyNotFound},
		{"QueryKeysFilter", testQueryKeysFilter},
		{"QueryKeysOrder", testQueryKeysOrder},
		{"DeleteIsolatesCaches", testDeleteIsolatesCaches},
		{"InvalidRecord", testInvalidRecord},
		{"CommitWritesAllRows", testCommitWritesAllRows},
		{"CommitRejectsWholeBatch", testCommitRejectsWholeBatch},
		{"Ping", testPing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func sampleAggregate(cache string, period store.Period, bucket time.Time) *store.AggregateRecord {
	return &store.AggregateRecord{
		Cache:       cache,
		Period:      period,
		BucketStart: bucket,
		Counters: metrics.Counters{
			Hits: 10, Misses: 5, Sets: 5, Deletes: 1, Errors: 1,
			NativeSets: 2, NativeGets: 3, NativeDeletes: 1, NativeClears: 1, NativeDeleteByTags: 1, NativeErrors: 1,
		},
		HitLatency:       store.Latency{Avg: 4, P95: 9, Min: ptr(0), Max: ptr(12)},
		MissLatency:      store.Latency{Avg: 40, P95: 80, Min: ptr(10), Max: ptr(95.5)},
		SetLatency:       store.Latency{Avg: 2, P95: 3, Min: ptr(1), Max: ptr(3)},
		HitRatio:         10.0 / 15.0,
		Throughput:       1.5,
		ErrorRate:        1.0 / 16.0,
		CacheEfficiency:  10,
		NativeThroughput: 0.8,
		NativeErrorRate:  1.0 / 9.0,
		ActiveMs:         10000,
		UpdatedAt:        bucket.Add(time.Minute),
	}
}

func sampleKey(cache, key string, accessed time.Time) *store.KeyRecord {
	return &store.KeyRecord{
		Cache:           cache,
		Key:             key,
		Counters:        metrics.Counters{Hits: 3, Misses: 1, NativeGets: 2},
		HitLatency:      store.Latency{Avg: 2, P95: 3, Min: ptr(1), Max: ptr(3)},
		MissLatency:     store.Latency{Avg: 20, P95: 20, Min: ptr(20), Max: ptr(20)},
		MinLatency:      ptr(1),
		MaxLatency:      ptr(20),
		HitRatio:        0.75,
		CacheEfficiency: 10,
		Metadata:        metrics.KeyMetadata{Entity: "Books", Tenant: "acme", User: "john"},
		FirstSeen:       accessed.Add(-time.Hour),
		LastAccessed:    accessed,
		UpdatedAt:       accessed,
	}
}

func equalPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func checkLatency(t *testing.T, name string, got, want store.Latency) {
	t.Helper()
	if got.Avg != want.Avg || got.P95 != want.P95 {
		t.Errorf("%s avg/p95 = %v/%v, want %v/%v", name, got.Avg, got.P95, want.Avg, want.P95)
	}
	if !equalPtr(got.Min, want.Min) || !equalPtr(got.Max, want.Max) {
		t.Errorf("%s min/max = %v/%v, want %v/%v", name, got.Min, got.Max, want.Min, want.Max)
	}
}

func testAggregateRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	want := sampleAggregate("books", store.PeriodHourly, base)
	if err := s.UpsertAggregate(ctx, want); err != nil {
		t.Fatalf("UpsertAggregate() error = %v", err)
	}

	got, err := s.ReadAggregate(ctx, "books", store.PeriodHourly, base)
	if err != nil {
		t.Fatalf("ReadAggregate() error = %v", err)
	}
	if got.Counters != want.Counters {
		t.Errorf("counters = %+v, want %+v", got.Counters, want.Counters)
	}
	if !got.BucketStart.Equal(base) {
		t.Errorf("BucketStart = %v, want %v", got.BucketStart, base)
	}
	checkLatency(t, "hit", got.HitLatency, want.HitLatency)
	checkLatency(t, "miss", got.MissLatency, want.MissLatency)
	checkLatency(t, "set", got.SetLatency, want.SetLatency)
	checkLatency(t, "delete", got.DeleteLatency, want.DeleteLatency)
	if got.HitRatio != want.HitRatio || got.CacheEfficiency != want.CacheEfficiency || got.ActiveMs != want.ActiveMs {
		t.Errorf("derived fields = %v/%v/%v", got.HitRatio, got.CacheEfficiency, got.ActiveMs)
	}
	if got.NativeErrorRate != want.NativeErrorRate || got.Throughput != want.Throughput {
		t.Errorf("rates = %v/%v", got.NativeErrorRate, got.Throughput)
	}
}

func testAggregateUnsetMinMax(t *testing.T, s store.Store) {
	ctx := context.Background()
	r := sampleAggregate("books", store.PeriodDaily, base)
	if err := s.UpsertAggregate(ctx, r); err != nil {
		t.Fatalf("UpsertAggregate() error = %v", err)
	}
	got, err := s.ReadAggregate(ctx, "books", store.PeriodDaily, base)
	if err != nil {
		t.Fatalf("ReadAggregate() error = %v", err)
	}
	if got.DeleteLatency.Min != nil || got.DeleteLatency.Max != nil {
		t.Errorf("unset delete min/max came back as %v/%v", got.DeleteLatency.Min, got.DeleteLatency.Max)
	}
	if got.HitLatency.Min == nil || *got.HitLatency.Min != 0 {
		t.Errorf("a real zero minimum must survive, got %v", got.HitLatency.Min)
	}
}

func testAggregateNotFound(t *testing.T, s store.Store) {
	_, err := s.ReadAggregate(context.Background(), "books", store.PeriodHourly, base)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ReadAggregate() error = %v, want ErrNotFound", err)
	}
}

func testAggregateUpsertReplaces(t *testing.T, s store.Store) {
	ctx := context.Background()
	r := sampleAggregate("books", store.PeriodHourly, base)
	if err := s.UpsertAggregate(ctx, r); err != nil {
		t.Fatalf("UpsertAggregate() error = %v", err)
	}
	r.Hits = 15
	r.HitLatency.Avg = 6
	r.HitLatency.Max = nil
	if err := s.UpsertAggregate(ctx, r); err != nil {
		t.Fatalf("UpsertAggregate() second error = %v", err)
	}

	got, err := s.ReadAggregate(ctx, "books", store.PeriodHourly, base)
	if err != nil {
		t.Fatalf("ReadAggregate() error = %v", err)
	}
	if got.Hits != 15 || got.HitLatency.Avg != 6 {
		t.Errorf("hits/avg = %d/%v, want 15/6", got.Hits, got.HitLatency.Avg)
	}
	if got.HitLatency.Max != nil {
		t.Errorf("max = %v, want unset", *got.HitLatency.Max)
	}

	all, err := s.QueryAggregates(ctx, "books", store.PeriodHourly, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("QueryAggregates() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("rows = %d, want 1", len(all))
	}
}

func testQueryAggregates(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		bucket := base.Add(time.Duration(i) * time.Hour)
		if err := s.UpsertAggregate(ctx, sampleAggregate("books", store.PeriodHourly, bucket)); err != nil {
			t.Fatalf("UpsertAggregate() error = %v", err)
		}
	}
	if err := s.UpsertAggregate(ctx, sampleAggregate("books", store.PeriodDaily, store.PeriodDaily.Bucket(base))); err != nil {
		t.Fatalf("UpsertAggregate() daily error = %v", err)
	}
	if err := s.UpsertAggregate(ctx, sampleAggregate("authors", store.PeriodHourly, base)); err != nil {
		t.Fatalf("UpsertAggregate() other cache error = %v", err)
	}

	got, err := s.QueryAggregates(ctx, "books", store.PeriodHourly, base.Add(time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("QueryAggregates() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %d, want 3", len(got))
	}
	for i, want := range []time.Time{base.Add(3 * time.Hour), base.Add(2 * time.Hour), base.Add(time.Hour)} {
		if !got[i].BucketStart.Equal(want) {
			t.Errorf("row %d bucket = %v, want %v", i, got[i].BucketStart, want)
		}
		if got[i].Period != store.PeriodHourly || got[i].Cache != "books" {
			t.Errorf("row %d = %s/%s", i, got[i].Cache, got[i].Period)
		}
	}

	open, err := s.QueryAggregates(ctx, "books", store.PeriodHourly, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("QueryAggregates() open error = %v", err)
	}
	if len(open) != 4 {
		t.Errorf("open range rows = %d, want 4", len(open))
	}
}

func testKeyRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	want := sampleKey("books", "acme:john:abc", base)
	want.MaxLatency = nil
	if err := s.UpsertKey(ctx, want); err != nil {
		t.Fatalf("UpsertKey() error = %v", err)
	}
	got, err := s.ReadKey(ctx, "books", "acme:john:abc")
	if err != nil {
		t.Fatalf("ReadKey() error = %v", err)
	}
	if got.Counters != want.Counters {
		t.Errorf("counters = %+v, want %+v", got.Counters, want.Counters)
	}
	if got.Metadata != want.Metadata {
		t.Errorf("metadata = %+v, want %+v", got.Metadata, want.Metadata)
	}
	if !got.FirstSeen.Equal(want.FirstSeen) || !got.LastAccessed.Equal(want.LastAccessed) {
		t.Errorf("times = %v/%v", got.FirstSeen, got.LastAccessed)
	}
	if !equalPtr(got.MinLatency, want.MinLatency) || got.MaxLatency != nil {
		t.Errorf("min/max = %v/%v, want 1/unset", got.MinLatency, got.MaxLatency)
	}
	checkLatency(t, "hit", got.HitLatency, want.HitLatency)
	if got.HitRatio != want.HitRatio || got.CacheEfficiency != want.CacheEfficiency {
		t.Errorf("ratios = %v/%v", got.HitRatio, got.CacheEfficiency)
	}
}

func testKeyNotFound(t *testing.T, s store.Store) {
	_, err := s.ReadKey(context.Background(), "books", "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ReadKey() error = %v, want ErrNotFound", err)
	}
}

func seedKeys(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	rows := []struct {
		key    string
		tenant string
		hits   int64
		at     time.Duration
	}{
		{"acme:a", "acme", 10, 0},
		{"acme:b", "acme", 2, time.Hour},
		{"globex:c", "globex", 7, 2 * time.Hour},
		{"globex:d", "globex", 2, 3 * time.Hour},
	}
	for _, r := range rows {
		rec := sampleKey("books", r.key, base.Add(r.at))
		rec.Counters = metrics.Counters{Hits: r.hits}
		rec.Metadata.Tenant = r.tenant
		if err := s.UpsertKey(ctx, rec); err != nil {
			t.Fatalf("UpsertKey(%s) error = %v", r.key, err)
		}
	}
	if err := s.UpsertKey(ctx, sampleKey("authors", "acme:z", base)); err != nil {
		t.Fatalf("UpsertKey() other cache error = %v", err)
	}
}

func keysOf(rows []*store.KeyRecord) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Key
	}
	return out
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testQueryKeysFilter(t *testing.T, s store.Store) {
	seedKeys(t, s)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter store.KeyFilter
		want   []string
	}{
		{"all", store.KeyFilter{}, []string{"acme:a", "globex:c", "globex:d", "acme:b"}},
		{"exact", store.KeyFilter{Key: "globex:c"}, []string{"globex:c"}},
		{"prefix", store.KeyFilter{Prefix: "acme:"}, []string{"acme:a", "acme:b"}},
		{"tenant", store.KeyFilter{Tenant: "globex"}, []string{"globex:c", "globex:d"}},
		{"range", store.KeyFilter{AccessedFrom: base.Add(time.Hour), AccessedTo: base.Add(2 * time.Hour)}, []string{"globex:c", "acme:b"}},
		{"limit", store.KeyFilter{Limit: 2}, []string{"acme:a", "globex:c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.QueryKeys(ctx, "books", tt.filter)
			if err != nil {
				t.Fatalf("QueryKeys() error = %v", err)
			}
			if !sameKeys(keysOf(got), tt.want) {
				t.Errorf("QueryKeys() = %v, want %v", keysOf(got), tt.want)
			}
		})
	}
}

func testQueryKeysOrder(t *testing.T, s store.Store) {
	seedKeys(t, s)
	got, err := s.QueryKeys(context.Background(), "books", store.KeyFilter{Order: store.OrderLeastRecent, Limit: 3})
	if err != nil {
		t.Fatalf("QueryKeys() error = %v", err)
	}
	want := []string{"acme:a", "acme:b", "globex:c"}
	if !sameKeys(keysOf(got), want) {
		t.Errorf("QueryKeys() = %v, want %v", keysOf(got), want)
	}
}

func testDeleteIsolatesCaches(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedKeys(t, s)
	if err := s.UpsertAggregate(ctx, sampleAggregate("books", store.PeriodHourly, base)); err != nil {
		t.Fatalf("UpsertAggregate() error = %v", err)
	}
	if err := s.UpsertAggregate(ctx, sampleAggregate("authors", store.PeriodHourly, base)); err != nil {
		t.Fatalf("UpsertAggregate() error = %v", err)
	}

	if err := s.DeleteAggregates(ctx, "books"); err != nil {
		t.Fatalf("DeleteAggregates() error = %v", err)
	}
	if err := s.DeleteKeys(ctx, "books"); err != nil {
		t.Fatalf("DeleteKeys() error = %v", err)
	}

	if _, err := s.ReadAggregate(ctx, "books", store.PeriodHourly, base); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("books aggregate still present: %v", err)
	}
	if rows, _ := s.QueryKeys(ctx, "books", store.KeyFilter{}); len(rows) != 0 {
		t.Errorf("books keys = %v, want none", keysOf(rows))
	}
	if _, err := s.ReadAggregate(ctx, "authors", store.PeriodHourly, base); err != nil {
		t.Errorf("authors aggregate removed: %v", err)
	}
	if _, err := s.ReadKey(ctx, "authors", "acme:z"); err != nil {
		t.Errorf("authors key removed: %v", err)
	}
}

func testInvalidRecord(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.UpsertAggregate(ctx, &store.AggregateRecord{Cache: "books", Period: "weekly", BucketStart: base}); !errors.Is(err, store.ErrInvalidPeriod) {
		t.Errorf("UpsertAggregate(weekly) error = %v, want ErrInvalidPeriod", err)
	}
	if err := s.UpsertKey(ctx, &store.KeyRecord{Cache: "books"}); !errors.Is(err, store.ErrInvalidRecord) {
		t.Errorf("UpsertKey(no key) error = %v, want ErrInvalidRecord", err)
	}
}

func testPing(t *testing.T, s store.Store) {
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func testCommitWritesAllRows(t *testing.T, s store.Store) {
	ctx := context.Background()
	daily := store.PeriodDaily.Bucket(base)
	b := &store.Batch{
		Aggregates: []*store.AggregateRecord{
			sampleAggregate("books", store.PeriodHourly, base),
			sampleAggregate("books", store.PeriodDaily, daily),
		},
		Keys: []*store.KeyRecord{
			sampleKey("books", "acme:1", base),
			sampleKey("books", "acme:2", base),
		},
	}
	if err := s.Commit(ctx, b); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if _, err := s.ReadAggregate(ctx, "books", store.PeriodHourly, base); err != nil {
		t.Errorf("hourly row: %v", err)
	}
	got, err := s.ReadAggregate(ctx, "books", store.PeriodDaily, daily)
	if err != nil {
		t.Fatalf("daily row: %v", err)
	}
	if got.Hits != 10 || !equalPtr(got.MissLatency.Max, ptr(95.5)) {
		t.Errorf("daily row = %+v", got)
	}
	rows, err := s.QueryKeys(ctx, "books", store.KeyFilter{})
	if err != nil || len(rows) != 2 {
		t.Fatalf("QueryKeys() = %d rows, err %v", len(rows), err)
	}

	if err := s.Commit(ctx, &store.Batch{}); err != nil {
		t.Errorf("Commit(empty) error = %v", err)
	}
}

func testCommitRejectsWholeBatch(t *testing.T, s store.Store) {
	ctx := context.Background()
	b := &store.Batch{
		Aggregates: []*store.AggregateRecord{sampleAggregate("books", store.PeriodHourly, base)},
		Keys: []*store.KeyRecord{
			sampleKey("books", "acme:1", base),
			{Cache: "books"},
		},
	}
	if err := s.Commit(ctx, b); !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("Commit() error = %v, want ErrInvalidRecord", err)
	}
	if _, err := s.ReadAggregate(ctx, "books", store.PeriodHourly, base); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("aggregate written by a rejected batch: %v", err)
	}
	if _, err := s.ReadKey(ctx, "books", "acme:1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("key written by a rejected batch: %v", err)
	}
}
