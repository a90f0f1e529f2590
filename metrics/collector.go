package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource supplies the live snapshot read on each scrape.
type StatsSource interface {
	Stats() Stats
}

var (
	opsDesc = prometheus.NewDesc(
		"cachestats_operations_total",
		"Cache operations recorded in the current window.",
		[]string{"cache", "op"}, nil,
	)
	errorsDesc = prometheus.NewDesc(
		"cachestats_errors_total",
		"Cache errors recorded in the current window.",
		[]string{"cache", "path"}, nil,
	)
	latencyDesc = prometheus.NewDesc(
		"cachestats_latency_ms",
		"Latency summary of the buffered samples in milliseconds.",
		[]string{"cache", "op", "stat"}, nil,
	)
	hitRatioDesc = prometheus.NewDesc(
		"cachestats_hit_ratio",
		"Hits over read-through operations in the current window.",
		[]string{"cache"}, nil,
	)
	efficiencyDesc = prometheus.NewDesc(
		"cachestats_efficiency",
		"Average miss latency over average hit latency.",
		[]string{"cache"}, nil,
	)
	trackedKeysDesc = prometheus.NewDesc(
		"cachestats_tracked_keys",
		"Keys currently held in the key table.",
		[]string{"cache"}, nil,
	)
)

// Collector exports the live window of a cache to Prometheus. Values are
// read from the source at scrape time; counters reset whenever the window is
// flushed.
type Collector struct {
	cache  string
	source StatsSource
}

// NewCollector creates a collector for the named cache.
func NewCollector(cache string, source StatsSource) *Collector {
	return &Collector{cache: cache, source: source}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- opsDesc
	ch <- errorsDesc
	ch <- latencyDesc
	ch <- hitRatioDesc
	ch <- efficiencyDesc
	ch <- trackedKeysDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	ops := []struct {
		op Op
		n  int64
	}{
		{OpHit, s.Hits},
		{OpMiss, s.Misses},
		{OpSet, s.Sets},
		{OpDelete, s.Deletes},
		{OpNativeSet, s.NativeSets},
		{OpNativeGet, s.NativeGets},
		{OpNativeDelete, s.NativeDeletes},
		{OpNativeClear, s.NativeClears},
		{OpNativeDeleteByTag, s.NativeDeleteByTags},
	}
	for _, o := range ops {
		ch <- prometheus.MustNewConstMetric(opsDesc, prometheus.CounterValue, float64(o.n), c.cache, o.op.String())
	}

	ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(s.Errors), c.cache, "read_through")
	ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(s.NativeErrors), c.cache, "native")

	latencies := []struct {
		op Op
		l  LatencyStats
	}{
		{OpHit, s.HitLatency},
		{OpMiss, s.MissLatency},
		{OpSet, s.SetLatency},
		{OpDelete, s.DeleteLatency},
	}
	for _, l := range latencies {
		if l.l.Samples == 0 {
			continue
		}
		ch <- prometheus.MustNewConstMetric(latencyDesc, prometheus.GaugeValue, l.l.Avg, c.cache, l.op.String(), "avg")
		ch <- prometheus.MustNewConstMetric(latencyDesc, prometheus.GaugeValue, l.l.P95, c.cache, l.op.String(), "p95")
		if l.l.Min != nil {
			ch <- prometheus.MustNewConstMetric(latencyDesc, prometheus.GaugeValue, *l.l.Min, c.cache, l.op.String(), "min")
		}
		if l.l.Max != nil {
			ch <- prometheus.MustNewConstMetric(latencyDesc, prometheus.GaugeValue, *l.l.Max, c.cache, l.op.String(), "max")
		}
	}

	ch <- prometheus.MustNewConstMetric(hitRatioDesc, prometheus.GaugeValue, s.HitRatio, c.cache)
	ch <- prometheus.MustNewConstMetric(efficiencyDesc, prometheus.GaugeValue, s.CacheEfficiency, c.cache)
	ch <- prometheus.MustNewConstMetric(trackedKeysDesc, prometheus.GaugeValue, float64(s.TrackedKeys), c.cache)
}

var _ prometheus.Collector = (*Collector)(nil)
