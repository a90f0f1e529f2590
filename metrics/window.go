package metrics

import (
	"time"
)

// Window is one aggregation period of cache telemetry.
//
// A Window is not safe for concurrent use. The live window is guarded by its
// Accumulator; a window returned by Accumulator.Detach belongs to the caller.
type Window struct {
	start      time.Time
	maxSamples int
	counters   Counters
	latency    [4]*sampleBuffer
	keys       map[string]*keyStat
	seq        uint64
}

func newWindow(start time.Time, maxSamples int) *Window {
	w := &Window{
		start:      start,
		maxSamples: maxSamples,
		keys:       make(map[string]*keyStat),
	}
	for i := range w.latency {
		w.latency[i] = newSampleBuffer(maxSamples)
	}
	return w
}

// Start returns when the window began.
func (w *Window) Start() time.Time {
	return w.start
}

// Counters returns the window's scalar counters.
func (w *Window) Counters() Counters {
	return w.counters
}

// Empty reports whether nothing was recorded in the window.
func (w *Window) Empty() bool {
	return w.counters == Counters{} && len(w.keys) == 0
}

// Len returns the number of tracked keys.
func (w *Window) Len() int {
	return len(w.keys)
}

// SampleCount returns the number of buffered latency samples for op.
// Native operations carry no samples.
func (w *Window) SampleCount(op Op) int {
	if op.Native() {
		return 0
	}
	return w.latency[op].len()
}

// Stats derives a snapshot of the window as of now.
func (w *Window) Stats(now time.Time) Stats {
	c := w.counters
	elapsed := toMillis(now.Sub(w.start))

	s := Stats{
		Counters:       c,
		ReadThroughOps: c.ReadThroughOps(),
		NativeOps:      c.NativeOps(),
		HitLatency:     summarize(w.latency[OpHit].values()),
		MissLatency:    summarize(w.latency[OpMiss].values()),
		SetLatency:     summarize(w.latency[OpSet].values()),
		DeleteLatency:  summarize(w.latency[OpDelete].values()),
		TrackedKeys:    len(w.keys),
		WindowStart:    w.start,
		ElapsedMs:      elapsed,
	}
	s.HitRatio = Ratio(float64(c.Hits), float64(c.ReadThroughOps()))
	s.ErrorRate = Ratio(float64(c.Errors), float64(c.ReadThroughOps()+c.Errors))
	s.NativeErrorRate = Ratio(float64(c.NativeErrors), float64(c.NativeOps()+c.NativeErrors))
	if elapsed > 0 {
		s.Throughput = float64(c.ReadThroughOps()) / elapsed * 1000
		s.NativeThroughput = float64(c.NativeOps()) / elapsed * 1000
	}
	s.CacheEfficiency = Efficiency(
		s.HitLatency.Avg, int64(s.HitLatency.Samples),
		s.MissLatency.Avg, int64(s.MissLatency.Samples),
	)
	return s
}

// KeyStats returns a snapshot of every tracked key.
func (w *Window) KeyStats() map[string]KeyStats {
	out := make(map[string]KeyStats, len(w.keys))
	for k, ks := range w.keys {
		out[k] = ks.snapshot()
	}
	return out
}

func (w *Window) record(op Op, ms float64) {
	w.counters.inc(op)
	if !op.Native() {
		w.latency[op].push(ms)
	}
}

func (w *Window) key(name string, now time.Time) *keyStat {
	ks, ok := w.keys[name]
	if !ok {
		ks = newKeyStat(name, now, w.maxSamples)
		w.keys[name] = ks
	}
	w.seq++
	ks.touch(now, w.seq)
	return ks
}

// absorb merges an older window into w.
func (w *Window) absorb(older *Window) {
	if older.start.Before(w.start) {
		w.start = older.start
	}
	w.counters = older.counters.Add(w.counters)
	for i := range w.latency {
		w.latency[i].prepend(older.latency[i])
	}
	for name, old := range older.keys {
		cur, ok := w.keys[name]
		if !ok {
			w.keys[name] = old
			continue
		}
		cur.absorb(old)
	}
}

// enforceCapacity keeps the maxKeys keys with the most traffic. Ties keep the
// most recently accessed key.
func (w *Window) enforceCapacity(maxKeys int) {
	over := len(w.keys) - maxKeys
	if over <= 0 {
		return
	}
	if over == 1 {
		var victim *keyStat
		for _, ks := range w.keys {
			if victim == nil || lessValuable(ks, victim) {
				victim = ks
			}
		}
		delete(w.keys, victim.name)
		return
	}
	for _, ks := range rankByTraffic(w.keys)[maxKeys:] {
		delete(w.keys, ks.name)
	}
}
