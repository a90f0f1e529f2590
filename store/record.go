package store

import (
	"fmt"
	"time"

	"github.com/jonwraymond/cachestats/metrics"
)

// Latency is a persisted latency summary in milliseconds. The matching
// operation counter is its weight when two summaries merge.
type Latency struct {
	Avg float64  `json:"avg_ms"`
	P95 float64  `json:"p95_ms"`
	Min *float64 `json:"min_ms,omitempty"`
	Max *float64 `json:"max_ms,omitempty"`
}

// LatencyFrom converts a live summary into its persisted form.
func LatencyFrom(l metrics.LatencyStats) Latency {
	return Latency{Avg: l.Avg, P95: l.P95, Min: l.Min, Max: l.Max}
}

// AggregateRecord is one time-bucketed aggregate row.
type AggregateRecord struct {
	Cache       string    `json:"cache"`
	Period      Period    `json:"period"`
	BucketStart time.Time `json:"bucket_start"`

	metrics.Counters

	HitLatency    Latency `json:"hit_latency"`
	MissLatency   Latency `json:"miss_latency"`
	SetLatency    Latency `json:"set_latency"`
	DeleteLatency Latency `json:"delete_latency"`

	HitRatio         float64 `json:"hit_ratio"`
	Throughput       float64 `json:"throughput"`
	ErrorRate        float64 `json:"error_rate"`
	CacheEfficiency  float64 `json:"cache_efficiency"`
	NativeThroughput float64 `json:"native_throughput"`
	NativeErrorRate  float64 `json:"native_error_rate"`

	// ActiveMs is the accumulated duration of the windows merged into the
	// row. Throughput figures are derived over it.
	ActiveMs float64 `json:"active_ms"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the identifying fields.
func (r *AggregateRecord) Validate() error {
	if r == nil || r.Cache == "" {
		return fmt.Errorf("%w: aggregate without cache name", ErrInvalidRecord)
	}
	if !r.Period.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, r.Period)
	}
	if r.BucketStart.IsZero() {
		return fmt.Errorf("%w: aggregate without bucket", ErrInvalidRecord)
	}
	return nil
}

// KeyRecord is the cumulative row of one cache key.
type KeyRecord struct {
	Cache string `json:"cache"`
	Key   string `json:"key"`

	metrics.Counters

	HitLatency    Latency `json:"hit_latency"`
	MissLatency   Latency `json:"miss_latency"`
	SetLatency    Latency `json:"set_latency"`
	DeleteLatency Latency `json:"delete_latency"`

	MinLatency *float64 `json:"min_latency_ms,omitempty"`
	MaxLatency *float64 `json:"max_latency_ms,omitempty"`

	HitRatio        float64 `json:"hit_ratio"`
	CacheEfficiency float64 `json:"cache_efficiency"`

	Metadata metrics.KeyMetadata `json:"metadata"`

	FirstSeen    time.Time `json:"first_seen"`
	LastAccessed time.Time `json:"last_accessed"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks the identifying fields.
func (r *KeyRecord) Validate() error {
	if r == nil || r.Cache == "" || r.Key == "" {
		return fmt.Errorf("%w: key row without cache or key", ErrInvalidRecord)
	}
	return nil
}

// Clone returns a deep copy of r.
func (r *AggregateRecord) Clone() *AggregateRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.HitLatency = r.HitLatency.clone()
	c.MissLatency = r.MissLatency.clone()
	c.SetLatency = r.SetLatency.clone()
	c.DeleteLatency = r.DeleteLatency.clone()
	return &c
}

// Clone returns a deep copy of r.
func (r *KeyRecord) Clone() *KeyRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.HitLatency = r.HitLatency.clone()
	c.MissLatency = r.MissLatency.clone()
	c.SetLatency = r.SetLatency.clone()
	c.DeleteLatency = r.DeleteLatency.clone()
	c.MinLatency = cloneFloat(r.MinLatency)
	c.MaxLatency = cloneFloat(r.MaxLatency)
	return &c
}

func (l Latency) clone() Latency {
	l.Min = cloneFloat(l.Min)
	l.Max = cloneFloat(l.Max)
	return l
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
