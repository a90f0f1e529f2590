package metrics

import "time"

// Stats is a derived snapshot of a window.
type Stats struct {
	Counters

	ReadThroughOps int64 `json:"total_read_through_ops"`
	NativeOps      int64 `json:"total_native_ops"`

	HitLatency    LatencyStats `json:"hit_latency"`
	MissLatency   LatencyStats `json:"miss_latency"`
	SetLatency    LatencyStats `json:"set_latency"`
	DeleteLatency LatencyStats `json:"delete_latency"`

	HitRatio        float64 `json:"hit_ratio"`
	Throughput      float64 `json:"throughput"`
	ErrorRate       float64 `json:"error_rate"`
	CacheEfficiency float64 `json:"cache_efficiency"`

	NativeThroughput float64 `json:"native_throughput"`
	NativeErrorRate  float64 `json:"native_error_rate"`

	TrackedKeys int       `json:"tracked_keys"`
	WindowStart time.Time `json:"window_start"`
	ElapsedMs   float64   `json:"elapsed_ms"`
}

// KeyStats is a derived snapshot of one tracked key.
type KeyStats struct {
	Key string `json:"key"`

	Counters

	ReadThroughOps int64 `json:"total_read_through_ops"`
	NativeOps      int64 `json:"total_native_ops"`

	HitLatency    LatencyStats `json:"hit_latency"`
	MissLatency   LatencyStats `json:"miss_latency"`
	SetLatency    LatencyStats `json:"set_latency"`
	DeleteLatency LatencyStats `json:"delete_latency"`

	// MinLatency and MaxLatency span all latency classes; nil when unset.
	MinLatency *float64 `json:"min_latency_ms,omitempty"`
	MaxLatency *float64 `json:"max_latency_ms,omitempty"`

	HitRatio        float64 `json:"hit_ratio"`
	CacheEfficiency float64 `json:"cache_efficiency"`

	Metadata KeyMetadata `json:"metadata"`

	FirstSeen    time.Time `json:"first_seen"`
	LastAccessed time.Time `json:"last_accessed"`
}
