package persist

import (
	"time"

	"github.com/jonwraymond/cachestats/metrics"
	"github.com/jonwraymond/cachestats/store"
)

// weightedAvg merges two averages by their counts. A side with a zero count
// contributes nothing.
func weightedAvg(oldAvg float64, oldN int64, newAvg float64, newN int64) float64 {
	switch {
	case oldN <= 0 && newN <= 0:
		return 0
	case oldN <= 0:
		return newAvg
	case newN <= 0:
		return oldAvg
	}
	return (oldAvg*float64(oldN) + newAvg*float64(newN)) / float64(oldN+newN)
}

// mergeLatency merges two summaries weighted by their operation counts.
// P95 uses the same weighting as the average.
func mergeLatency(old store.Latency, oldN int64, cur store.Latency, newN int64) store.Latency {
	return store.Latency{
		Avg: weightedAvg(old.Avg, oldN, cur.Avg, newN),
		P95: weightedAvg(old.P95, oldN, cur.P95, newN),
		Min: metrics.MinOf(old.Min, cur.Min),
		Max: metrics.MaxOf(old.Max, cur.Max),
	}
}

// MergeAggregate folds the window stats s into the existing row old and
// returns the new row. A nil old seeds the row from s. old is not modified.
func MergeAggregate(old *store.AggregateRecord, cache string, period store.Period, s metrics.Stats, now time.Time) *store.AggregateRecord {
	r := &store.AggregateRecord{
		Cache:         cache,
		Period:        period,
		BucketStart:   period.Bucket(now),
		Counters:      s.Counters,
		HitLatency:    store.LatencyFrom(s.HitLatency),
		MissLatency:   store.LatencyFrom(s.MissLatency),
		SetLatency:    store.LatencyFrom(s.SetLatency),
		DeleteLatency: store.LatencyFrom(s.DeleteLatency),
		ActiveMs:      s.ElapsedMs,
		UpdatedAt:     now.UTC(),
	}

	if old != nil {
		o := old.Clone()
		r.BucketStart = o.BucketStart
		r.HitLatency = mergeLatency(o.HitLatency, o.Hits, r.HitLatency, s.Hits)
		r.MissLatency = mergeLatency(o.MissLatency, o.Misses, r.MissLatency, s.Misses)
		r.SetLatency = mergeLatency(o.SetLatency, o.Sets, r.SetLatency, s.Sets)
		r.DeleteLatency = mergeLatency(o.DeleteLatency, o.Deletes, r.DeleteLatency, s.Deletes)
		r.Counters = o.Counters.Add(s.Counters)
		r.ActiveMs = o.ActiveMs + s.ElapsedMs
	}

	deriveAggregate(r)
	return r
}

func deriveAggregate(r *store.AggregateRecord) {
	c := r.Counters
	rt := float64(c.ReadThroughOps())
	native := float64(c.NativeOps())

	r.HitRatio = metrics.Ratio(float64(c.Hits), rt)
	r.ErrorRate = metrics.Ratio(float64(c.Errors), rt+float64(c.Errors))
	r.NativeErrorRate = metrics.Ratio(float64(c.NativeErrors), native+float64(c.NativeErrors))
	r.Throughput, r.NativeThroughput = 0, 0
	if r.ActiveMs > 0 {
		r.Throughput = rt / r.ActiveMs * 1000
		r.NativeThroughput = native / r.ActiveMs * 1000
	}
	r.CacheEfficiency = metrics.Efficiency(r.HitLatency.Avg, c.Hits, r.MissLatency.Avg, c.Misses)
}

// MergeKey folds the live key snapshot ks into the existing row old and
// returns the new row. A nil old seeds the row from ks. Metadata fields
// are overwritten only by non-empty values.
func MergeKey(old *store.KeyRecord, cache string, ks metrics.KeyStats, now time.Time) *store.KeyRecord {
	r := &store.KeyRecord{
		Cache:         cache,
		Key:           ks.Key,
		Counters:      ks.Counters,
		HitLatency:    store.LatencyFrom(ks.HitLatency),
		MissLatency:   store.LatencyFrom(ks.MissLatency),
		SetLatency:    store.LatencyFrom(ks.SetLatency),
		DeleteLatency: store.LatencyFrom(ks.DeleteLatency),
		MinLatency:    ks.MinLatency,
		MaxLatency:    ks.MaxLatency,
		Metadata:      ks.Metadata,
		FirstSeen:     ks.FirstSeen.UTC(),
		LastAccessed:  ks.LastAccessed.UTC(),
		UpdatedAt:     now.UTC(),
	}

	if old != nil {
		o := old.Clone()
		r.HitLatency = mergeLatency(o.HitLatency, o.Hits, r.HitLatency, ks.Hits)
		r.MissLatency = mergeLatency(o.MissLatency, o.Misses, r.MissLatency, ks.Misses)
		r.SetLatency = mergeLatency(o.SetLatency, o.Sets, r.SetLatency, ks.Sets)
		r.DeleteLatency = mergeLatency(o.DeleteLatency, o.Deletes, r.DeleteLatency, ks.Deletes)
		r.MinLatency = metrics.MinOf(o.MinLatency, ks.MinLatency)
		r.MaxLatency = metrics.MaxOf(o.MaxLatency, ks.MaxLatency)
		r.Counters = o.Counters.Add(ks.Counters)
		r.Metadata = o.Metadata.Merge(ks.Metadata)
		if !o.FirstSeen.IsZero() && o.FirstSeen.Before(r.FirstSeen) {
			r.FirstSeen = o.FirstSeen
		}
		if o.LastAccessed.After(r.LastAccessed) {
			r.LastAccessed = o.LastAccessed
		}
	} else {
		r.MinLatency = metrics.MinOf(nil, ks.MinLatency)
		r.MaxLatency = metrics.MaxOf(nil, ks.MaxLatency)
	}

	c := r.Counters
	r.HitRatio = metrics.Ratio(float64(c.Hits), float64(c.ReadThroughOps()))
	r.CacheEfficiency = metrics.Efficiency(r.HitLatency.Avg, c.Hits, r.MissLatency.Avg, c.Misses)
	return r
}
