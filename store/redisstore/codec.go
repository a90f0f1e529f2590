package redisstore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jonwraymond/cachestats/metrics"
	"github.com/jonwraymond/cachestats/store"
)

func toMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMicro()
}

func fromMicros(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

// fields is a hash under construction. Nil optional values are left out.
type fields map[string]any

func (f fields) str(name, v string) {
	if v != "" {
		f[name] = v
	}
}

func (f fields) int(name string, v int64) {
	f[name] = strconv.FormatInt(v, 10)
}

func (f fields) float(name string, v float64) {
	f[name] = strconv.FormatFloat(v, 'g', -1, 64)
}

func (f fields) optFloat(name string, v *float64) {
	if v != nil {
		f.float(name, *v)
	}
}

func (f fields) time(name string, t time.Time) {
	f.int(name, toMicros(t))
}

func (f fields) counters(c metrics.Counters) {
	f.int("hits", c.Hits)
	f.int("misses", c.Misses)
	f.int("sets", c.Sets)
	f.int("deletes", c.Deletes)
	f.int("errors", c.Errors)
	f.int("native_sets", c.NativeSets)
	f.int("native_gets", c.NativeGets)
	f.int("native_deletes", c.NativeDeletes)
	f.int("native_clears", c.NativeClears)
	f.int("native_delete_by_tags", c.NativeDeleteByTags)
	f.int("native_errors", c.NativeErrors)
}

func (f fields) latency(class string, l store.Latency) {
	f.float(class+"_avg", l.Avg)
	f.float(class+"_p95", l.P95)
	f.optFloat(class+"_min", l.Min)
	f.optFloat(class+"_max", l.Max)
}

func encodeAggregate(r *store.AggregateRecord) map[string]any {
	f := fields{}
	f.str("cache", r.Cache)
	f.str("period", string(r.Period))
	f.time("bucket_start", r.BucketStart)
	f.counters(r.Counters)
	f.latency("hit", r.HitLatency)
	f.latency("miss", r.MissLatency)
	f.latency("set", r.SetLatency)
	f.latency("delete", r.DeleteLatency)
	f.float("hit_ratio", r.HitRatio)
	f.float("throughput", r.Throughput)
	f.float("error_rate", r.ErrorRate)
	f.float("cache_efficiency", r.CacheEfficiency)
	f.float("native_throughput", r.NativeThroughput)
	f.float("native_error_rate", r.NativeErrorRate)
	f.float("active_ms", r.ActiveMs)
	f.time("updated_at", r.UpdatedAt)
	return f
}

func encodeKey(r *store.KeyRecord) map[string]any {
	f := fields{}
	f.str("cache", r.Cache)
	f.str("key", r.Key)
	f.counters(r.Counters)
	f.latency("hit", r.HitLatency)
	f.latency("miss", r.MissLatency)
	f.latency("set", r.SetLatency)
	f.latency("delete", r.DeleteLatency)
	f.optFloat("min_latency", r.MinLatency)
	f.optFloat("max_latency", r.MaxLatency)
	f.float("hit_ratio", r.HitRatio)
	f.float("cache_efficiency", r.CacheEfficiency)
	m := r.Metadata
	f.str("meta_data_type", m.DataType)
	f.str("meta_service", m.Service)
	f.str("meta_entity", m.Entity)
	f.str("meta_tenant", m.Tenant)
	f.str("meta_user", m.User)
	f.str("meta_locale", m.Locale)
	f.str("meta_context", m.Context)
	f.str("meta_query", m.Query)
	f.str("meta_subject", m.Subject)
	f.time("first_seen", r.FirstSeen)
	f.time("last_accessed", r.LastAccessed)
	f.time("updated_at", r.UpdatedAt)
	return f
}

// hashReader decodes a hash, keeping the first parse error.
type hashReader struct {
	m   map[string]string
	err error
}

func (h *hashReader) str(name string) string {
	return h.m[name]
}

func (h *hashReader) int(name string) int64 {
	s, ok := h.m[name]
	if !ok || h.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		h.err = fmt.Errorf("redisstore: field %s: %w", name, err)
	}
	return v
}

func (h *hashReader) float(name string) float64 {
	s, ok := h.m[name]
	if !ok || h.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		h.err = fmt.Errorf("redisstore: field %s: %w", name, err)
	}
	return v
}

func (h *hashReader) optFloat(name string) *float64 {
	if _, ok := h.m[name]; !ok {
		return nil
	}
	v := h.float(name)
	return &v
}

func (h *hashReader) time(name string) time.Time {
	return fromMicros(h.int(name))
}

func (h *hashReader) counters() metrics.Counters {
	return metrics.Counters{
		Hits:               h.int("hits"),
		Misses:             h.int("misses"),
		Sets:               h.int("sets"),
		Deletes:            h.int("deletes"),
		Errors:             h.int("errors"),
		NativeSets:         h.int("native_sets"),
		NativeGets:         h.int("native_gets"),
		NativeDeletes:      h.int("native_deletes"),
		NativeClears:       h.int("native_clears"),
		NativeDeleteByTags: h.int("native_delete_by_tags"),
		NativeErrors:       h.int("native_errors"),
	}
}

func (h *hashReader) latency(class string) store.Latency {
	return store.Latency{
		Avg: h.float(class + "_avg"),
		P95: h.float(class + "_p95"),
		Min: h.optFloat(class + "_min"),
		Max: h.optFloat(class + "_max"),
	}
}

func decodeAggregate(m map[string]string) (*store.AggregateRecord, error) {
	h := &hashReader{m: m}
	r := &store.AggregateRecord{
		Cache:            h.str("cache"),
		Period:           store.Period(h.str("period")),
		BucketStart:      h.time("bucket_start"),
		Counters:         h.counters(),
		HitLatency:       h.latency("hit"),
		MissLatency:      h.latency("miss"),
		SetLatency:       h.latency("set"),
		DeleteLatency:    h.latency("delete"),
		HitRatio:         h.float("hit_ratio"),
		Throughput:       h.float("throughput"),
		ErrorRate:        h.float("error_rate"),
		CacheEfficiency:  h.float("cache_efficiency"),
		NativeThroughput: h.float("native_throughput"),
		NativeErrorRate:  h.float("native_error_rate"),
		ActiveMs:         h.float("active_ms"),
		UpdatedAt:        h.time("updated_at"),
	}
	if h.err != nil {
		return nil, h.err
	}
	return r, nil
}

func decodeKey(m map[string]string) (*store.KeyRecord, error) {
	h := &hashReader{m: m}
	r := &store.KeyRecord{
		Cache:           h.str("cache"),
		Key:             h.str("key"),
		Counters:        h.counters(),
		HitLatency:      h.latency("hit"),
		MissLatency:     h.latency("miss"),
		SetLatency:      h.latency("set"),
		DeleteLatency:   h.latency("delete"),
		MinLatency:      h.optFloat("min_latency"),
		MaxLatency:      h.optFloat("max_latency"),
		HitRatio:        h.float("hit_ratio"),
		CacheEfficiency: h.float("cache_efficiency"),
		Metadata: metrics.KeyMetadata{
			DataType: h.str("meta_data_type"),
			Service:  h.str("meta_service"),
			Entity:   h.str("meta_entity"),
			Tenant:   h.str("meta_tenant"),
			User:     h.str("meta_user"),
			Locale:   h.str("meta_locale"),
			Context:  h.str("meta_context"),
			Query:    h.str("meta_query"),
			Subject:  h.str("meta_subject"),
		},
		FirstSeen:    h.time("first_seen"),
		LastAccessed: h.time("last_accessed"),
		UpdatedAt:    h.time("updated_at"),
	}
	if h.err != nil {
		return nil, h.err
	}
	return r, nil
}
