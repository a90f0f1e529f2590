package metrics

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestAccumulator(t *testing.T, cfg Config) (*Accumulator, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	return NewAccumulator(cfg, WithClock(clock.Now)), clock
}

func TestAccumulator_StatsCorrectness(t *testing.T) {
	acc, clock := newTestAccumulator(t, DefaultConfig())

	acc.RecordHit(5*time.Millisecond, "", KeyMetadata{})
	acc.RecordMiss(50*time.Millisecond, "", KeyMetadata{})
	clock.Advance(time.Second)

	s := acc.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 1/1", s.Hits, s.Misses)
	}
	if s.ReadThroughOps != 2 {
		t.Errorf("ReadThroughOps = %d, want 2", s.ReadThroughOps)
	}
	if s.HitRatio != 0.5 {
		t.Errorf("HitRatio = %v, want 0.5", s.HitRatio)
	}
	if s.HitLatency.Avg != 5 {
		t.Errorf("avg hit = %v, want 5", s.HitLatency.Avg)
	}
	if s.MissLatency.Avg != 50 {
		t.Errorf("avg miss = %v, want 50", s.MissLatency.Avg)
	}
	if s.CacheEfficiency != 10 {
		t.Errorf("CacheEfficiency = %v, want 10", s.CacheEfficiency)
	}
	if s.Throughput != 2 {
		t.Errorf("Throughput = %v, want 2 ops/s", s.Throughput)
	}
	if s.ErrorRate != 0 {
		t.Errorf("ErrorRate = %v, want 0", s.ErrorRate)
	}
}

func TestAccumulator_EfficiencyNeedsBothSides(t *testing.T) {
	acc, _ := newTestAccumulator(t, DefaultConfig())
	acc.RecordHit(5*time.Millisecond, "", KeyMetadata{})

	if got := acc.Stats().CacheEfficiency; got != 0 {
		t.Errorf("CacheEfficiency = %v, want 0 without miss samples", got)
	}
}

func TestAccumulator_ErrorRates(t *testing.T) {
	acc, _ := newTestAccumulator(t, DefaultConfig())
	for i := 0; i < 3; i++ {
		acc.RecordHit(time.Millisecond, "", KeyMetadata{})
	}
	acc.RecordError(nil)
	acc.RecordNativeGet("k", KeyMetadata{})
	acc.RecordNativeError(nil)

	s := acc.Stats()
	if s.ErrorRate != 0.25 {
		t.Errorf("ErrorRate = %v, want 0.25", s.ErrorRate)
	}
	if s.NativeErrorRate != 0.5 {
		t.Errorf("NativeErrorRate = %v, want 0.5", s.NativeErrorRate)
	}
}

func TestAccumulator_NativeCountersSeparate(t *testing.T) {
	acc, _ := newTestAccumulator(t, DefaultConfig())
	acc.RecordHit(time.Millisecond, "k", KeyMetadata{})
	acc.RecordNativeSet("k", KeyMetadata{})
	acc.RecordNativeGet("k", KeyMetadata{})
	acc.RecordNativeDelete("k", KeyMetadata{})
	acc.RecordNativeClear("k", KeyMetadata{})
	acc.RecordNativeDeleteByTag("k", KeyMetadata{})

	s := acc.Stats()
	if s.ReadThroughOps != 1 {
		t.Errorf("ReadThroughOps = %d, want 1", s.ReadThroughOps)
	}
	if s.NativeOps != 5 {
		t.Errorf("NativeOps = %d, want 5", s.NativeOps)
	}
	if s.Hits+s.Misses != s.ReadThroughOps {
		t.Errorf("hits+misses = %d, want %d", s.Hits+s.Misses, s.ReadThroughOps)
	}
	for op := OpNativeSet; op <= OpNativeDeleteByTag; op++ {
		if n := acc.win.SampleCount(op); n != 0 {
			t.Errorf("%s carries %d latency samples", op, n)
		}
	}

	ks := acc.KeyStats()["k"]
	if ks.Traffic() != 6 {
		t.Errorf("key traffic = %d, want 6", ks.Traffic())
	}
}

func TestAccumulator_BoundedBuffers(t *testing.T) {
	const limit = 10
	acc, _ := newTestAccumulator(t, Config{MetricsEnabled: true, KeyMetricsEnabled: true, MaxLatencySamples: limit, MaxTrackedKeys: 5})

	for i := 0; i < limit+5; i++ {
		acc.RecordHit(time.Duration(i)*time.Millisecond, "k", KeyMetadata{})
	}

	s := acc.Stats()
	if s.HitLatency.Samples != limit {
		t.Fatalf("samples = %d, want %d", s.HitLatency.Samples, limit)
	}
	if s.Hits != limit+5 {
		t.Errorf("hits = %d, want %d", s.Hits, limit+5)
	}
	if got := *s.HitLatency.Min; got != 5 {
		t.Errorf("oldest retained sample = %v, want 5", got)
	}
	if got := *s.HitLatency.Max; got != limit+4 {
		t.Errorf("newest retained sample = %v, want %d", got, limit+4)
	}

	ks := acc.KeyStats()["k"]
	if ks.HitLatency.Samples != limit {
		t.Errorf("key samples = %d, want %d", ks.HitLatency.Samples, limit)
	}
	// The key's min spans its whole lifetime, not just the buffer.
	if ks.MinLatency == nil || *ks.MinLatency != 0 {
		t.Errorf("key MinLatency = %v, want 0", ks.MinLatency)
	}
}

func TestAccumulator_EvictsLowestTraffic(t *testing.T) {
	acc, clock := newTestAccumulator(t, Config{MetricsEnabled: true, KeyMetricsEnabled: true, MaxLatencySamples: 10, MaxTrackedKeys: 3})

	record := func(key string, n int) {
		for i := 0; i < n; i++ {
			clock.Advance(time.Millisecond)
			acc.RecordHit(time.Millisecond, key, KeyMetadata{})
		}
	}
	record("a", 3)
	record("b", 1)
	record("c", 2)
	record("d", 2)

	keys := acc.KeyStats()
	if len(keys) != 3 {
		t.Fatalf("tracked %d keys, want 3", len(keys))
	}
	if _, ok := keys["b"]; ok {
		t.Error("lowest-traffic key b should have been evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := keys[k]; !ok {
			t.Errorf("key %s missing", k)
		}
	}
}

func TestAccumulator_EvictionTieKeepsRecent(t *testing.T) {
	acc, _ := newTestAccumulator(t, Config{MetricsEnabled: true, KeyMetricsEnabled: true, MaxLatencySamples: 10, MaxTrackedKeys: 2})

	// Same timestamp for every record; recency falls back to record order.
	acc.RecordNativeGet("old", KeyMetadata{})
	acc.RecordNativeGet("mid", KeyMetadata{})
	acc.RecordNativeGet("new", KeyMetadata{})

	keys := acc.KeyStats()
	if _, ok := keys["old"]; ok {
		t.Error("least recently accessed key should be evicted on a tie")
	}
	if len(keys) != 2 {
		t.Errorf("tracked %d keys, want 2", len(keys))
	}
}

func TestAccumulator_TopAndColdKeys(t *testing.T) {
	acc, clock := newTestAccumulator(t, DefaultConfig())

	touch := func(key string, n int) {
		for i := 0; i < n; i++ {
			clock.Advance(time.Second)
			acc.RecordHit(time.Millisecond, key, KeyMetadata{})
		}
	}
	touch("busy", 5)
	touch("quiet", 1)
	touch("medium", 3)

	top := acc.TopKeys(2)
	if len(top) != 2 || top[0].Key != "busy" || top[1].Key != "medium" {
		t.Errorf("TopKeys = %v, want [busy medium]", keyNames(top))
	}

	cold := acc.ColdKeys(0)
	want := []string{"busy", "quiet", "medium"}
	if got := keyNames(cold); !equalStrings(got, want) {
		t.Errorf("ColdKeys = %v, want %v", got, want)
	}
}

func TestAccumulator_DisabledIsNoop(t *testing.T) {
	acc, _ := newTestAccumulator(t, DefaultConfig())

	acc.EnableMetrics(false)
	acc.EnableMetrics(false)
	acc.EnableKeyMetrics(false)
	acc.EnableKeyMetrics(false)

	acc.RecordHit(time.Millisecond, "k", KeyMetadata{})
	acc.RecordNativeSet("k", KeyMetadata{})
	acc.RecordError(nil)

	s := acc.Stats()
	if s.Counters != (Counters{}) {
		t.Errorf("counters = %+v, want zero", s.Counters)
	}
	if len(acc.KeyStats()) != 0 {
		t.Error("no key should be tracked while key metrics are off")
	}
	if acc.MetricsEnabled() || acc.KeyMetricsEnabled() {
		t.Error("flags should report disabled")
	}
}

func TestAccumulator_KeyMetricsIndependent(t *testing.T) {
	acc, _ := newTestAccumulator(t, DefaultConfig())
	acc.EnableMetrics(false)

	acc.RecordMiss(4*time.Millisecond, "k", KeyMetadata{})

	if acc.Stats().Misses != 0 {
		t.Error("aggregate counters should stay off")
	}
	if ks, ok := acc.KeyStats()["k"]; !ok || ks.Misses != 1 {
		t.Errorf("key stats = %+v, want one miss", ks)
	}
}

func TestAccumulator_MetadataMerge(t *testing.T) {
	acc, _ := newTestAccumulator(t, DefaultConfig())

	acc.RecordSet(time.Millisecond, "k", KeyMetadata{Entity: "Books", Tenant: "acme"})
	acc.RecordHit(time.Millisecond, "k", KeyMetadata{Tenant: "globex", User: "john"})

	got := acc.KeyStats()["k"].Metadata
	want := KeyMetadata{Entity: "Books", Tenant: "globex", User: "john"}
	if got != want {
		t.Errorf("metadata = %+v, want %+v", got, want)
	}
}

func TestAccumulator_DetachRestore(t *testing.T) {
	acc, clock := newTestAccumulator(t, DefaultConfig())
	start := clock.Now()

	acc.RecordHit(2*time.Millisecond, "k", KeyMetadata{Entity: "Books"})
	acc.RecordHit(4*time.Millisecond, "k", KeyMetadata{})
	clock.Advance(time.Minute)

	w := acc.Detach()
	if w.Counters().Hits != 2 {
		t.Fatalf("detached hits = %d, want 2", w.Counters().Hits)
	}
	if !acc.win.Empty() {
		t.Fatal("live window should be empty after detach")
	}

	acc.RecordMiss(8*time.Millisecond, "k", KeyMetadata{Service: "catalog"})
	acc.Restore(w)

	s := acc.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("hits=%d misses=%d, want 2/1", s.Hits, s.Misses)
	}
	if !s.WindowStart.Equal(start) {
		t.Errorf("WindowStart = %v, want %v", s.WindowStart, start)
	}
	if s.HitLatency.Samples != 2 {
		t.Errorf("hit samples = %d, want 2", s.HitLatency.Samples)
	}

	ks := acc.KeyStats()["k"]
	if ks.Hits != 2 || ks.Misses != 1 {
		t.Errorf("key hits=%d misses=%d, want 2/1", ks.Hits, ks.Misses)
	}
	if ks.Metadata.Entity != "Books" || ks.Metadata.Service != "catalog" {
		t.Errorf("metadata = %+v", ks.Metadata)
	}
	if !ks.FirstSeen.Equal(start) {
		t.Errorf("FirstSeen = %v, want %v", ks.FirstSeen, start)
	}
	if *ks.MinLatency != 2 || *ks.MaxLatency != 8 {
		t.Errorf("min/max = %v/%v, want 2/8", *ks.MinLatency, *ks.MaxLatency)
	}
}

func TestAccumulator_RestoreRespectsCapacity(t *testing.T) {
	acc, clock := newTestAccumulator(t, Config{MetricsEnabled: true, KeyMetricsEnabled: true, MaxLatencySamples: 3, MaxTrackedKeys: 2})

	for i := 0; i < 3; i++ {
		acc.RecordHit(time.Duration(i)*time.Millisecond, "old", KeyMetadata{})
	}
	w := acc.Detach()

	clock.Advance(time.Second)
	acc.RecordHit(10*time.Millisecond, "a", KeyMetadata{})
	acc.RecordHit(11*time.Millisecond, "b", KeyMetadata{})
	acc.Restore(w)

	if n := len(acc.KeyStats()); n != 2 {
		t.Errorf("tracked %d keys, want 2", n)
	}
	if _, ok := acc.KeyStats()["old"]; !ok {
		t.Error("the busiest key should survive the restore")
	}
	s := acc.Stats()
	if s.HitLatency.Samples != 3 {
		t.Errorf("samples = %d, want 3", s.HitLatency.Samples)
	}
	if *s.HitLatency.Min != 2 {
		t.Errorf("oldest retained = %v, want 2", *s.HitLatency.Min)
	}
}

func TestAccumulator_Reset(t *testing.T) {
	acc, clock := newTestAccumulator(t, DefaultConfig())
	acc.RecordHit(time.Millisecond, "k", KeyMetadata{})
	clock.Advance(time.Hour)
	acc.Reset()

	s := acc.Stats()
	if s.Hits != 0 || s.TrackedKeys != 0 {
		t.Errorf("stats after reset = %+v", s)
	}
	if !s.WindowStart.Equal(clock.Now()) {
		t.Errorf("WindowStart = %v, want %v", s.WindowStart, clock.Now())
	}
}

func TestAccumulator_Concurrent(t *testing.T) {
	acc := NewAccumulator(Config{MetricsEnabled: true, KeyMetricsEnabled: true, MaxLatencySamples: 50, MaxTrackedKeys: 20})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := string(rune('a' + (g*200+i)%40))
				acc.RecordHit(time.Millisecond, key, KeyMetadata{})
				if i%50 == 0 {
					_ = acc.Stats()
					_ = acc.TopKeys(5)
				}
			}
		}(g)
	}
	wg.Wait()

	s := acc.Stats()
	if s.Hits != 1600 {
		t.Errorf("hits = %d, want 1600", s.Hits)
	}
	if s.TrackedKeys > 20 {
		t.Errorf("tracked %d keys, cap is 20", s.TrackedKeys)
	}
	if s.HitLatency.Samples != 50 {
		t.Errorf("samples = %d, want 50", s.HitLatency.Samples)
	}
}

func keyNames(stats []KeyStats) []string {
	out := make([]string, len(stats))
	for i, s := range stats {
		out[i] = s.Key
	}
	return out
}

func equalStrings(a, b []string) bool {
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
