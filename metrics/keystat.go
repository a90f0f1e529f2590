package metrics

import (
	"sort"
	"time"
)

// keyStat is the per-key record inside a Window.
type keyStat struct {
	name         string
	counters     Counters
	latency      [4]*sampleBuffer
	minLatency   *float64
	maxLatency   *float64
	meta         KeyMetadata
	firstSeen    time.Time
	lastAccessed time.Time
	seq          uint64
}

func newKeyStat(name string, now time.Time, maxSamples int) *keyStat {
	ks := &keyStat{name: name, firstSeen: now}
	for i := range ks.latency {
		ks.latency[i] = newSampleBuffer(maxSamples)
	}
	return ks
}

func (ks *keyStat) touch(now time.Time, seq uint64) {
	ks.lastAccessed = now
	ks.seq = seq
}

func (ks *keyStat) record(op Op, ms float64) {
	ks.counters.inc(op)
	if op.Native() {
		return
	}
	ks.latency[op].push(ms)
	ks.minLatency = MinOf(ks.minLatency, &ms)
	ks.maxLatency = MaxOf(ks.maxLatency, &ms)
}

// absorb merges an older record for the same key into ks.
func (ks *keyStat) absorb(older *keyStat) {
	ks.counters = older.counters.Add(ks.counters)
	for i := range ks.latency {
		ks.latency[i].prepend(older.latency[i])
	}
	ks.minLatency = MinOf(ks.minLatency, older.minLatency)
	ks.maxLatency = MaxOf(ks.maxLatency, older.maxLatency)
	ks.meta = older.meta.Merge(ks.meta)
	if older.firstSeen.Before(ks.firstSeen) {
		ks.firstSeen = older.firstSeen
	}
}

func (ks *keyStat) snapshot() KeyStats {
	hit := summarize(ks.latency[OpHit].values())
	miss := summarize(ks.latency[OpMiss].values())
	return KeyStats{
		Key:             ks.name,
		Counters:        ks.counters,
		ReadThroughOps:  ks.counters.ReadThroughOps(),
		NativeOps:       ks.counters.NativeOps(),
		HitLatency:      hit,
		MissLatency:     miss,
		SetLatency:      summarize(ks.latency[OpSet].values()),
		DeleteLatency:   summarize(ks.latency[OpDelete].values()),
		MinLatency:      copyFloat(ks.minLatency),
		MaxLatency:      copyFloat(ks.maxLatency),
		HitRatio:        Ratio(float64(ks.counters.Hits), float64(ks.counters.ReadThroughOps())),
		CacheEfficiency: Efficiency(hit.Avg, int64(hit.Samples), miss.Avg, int64(miss.Samples)),
		Metadata:        ks.meta,
		FirstSeen:       ks.firstSeen,
		LastAccessed:    ks.lastAccessed,
	}
}

// lessValuable reports whether a should be evicted before b.
func lessValuable(a, b *keyStat) bool {
	ta, tb := a.counters.Traffic(), b.counters.Traffic()
	if ta != tb {
		return ta < tb
	}
	return lessRecent(a, b)
}

// lessRecent reports whether a was accessed before b.
func lessRecent(a, b *keyStat) bool {
	if !a.lastAccessed.Equal(b.lastAccessed) {
		return a.lastAccessed.Before(b.lastAccessed)
	}
	return a.seq < b.seq
}

// rankByTraffic orders keys most valuable first.
func rankByTraffic(keys map[string]*keyStat) []*keyStat {
	out := make([]*keyStat, 0, len(keys))
	for _, ks := range keys {
		out = append(out, ks)
	}
	sort.Slice(out, func(i, j int) bool { return lessValuable(out[j], out[i]) })
	return out
}

// rankByRecency orders keys least recently accessed first.
func rankByRecency(keys map[string]*keyStat) []*keyStat {
	out := make([]*keyStat, 0, len(keys))
	for _, ks := range keys {
		out = append(out, ks)
	}
	sort.Slice(out, func(i, j int) bool { return lessRecent(out[i], out[j]) })
	return out
}
