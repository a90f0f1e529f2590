package metrics

import (
	"math"
	"slices"
	"time"
)

// LatencyStats summarizes one latency sample buffer, in milliseconds.
// Min and Max are nil when the buffer holds no samples.
type LatencyStats struct {
	Samples int      `json:"samples"`
	Avg     float64  `json:"avg_ms"`
	P95     float64  `json:"p95_ms"`
	Min     *float64 `json:"min_ms,omitempty"`
	Max     *float64 `json:"max_ms,omitempty"`
}

func summarize(samples []float64) LatencyStats {
	if len(samples) == 0 {
		return LatencyStats{}
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	lo, hi := sorted[0], sorted[len(sorted)-1]
	return LatencyStats{
		Samples: len(sorted),
		Avg:     sum / float64(len(sorted)),
		P95:     percentile(sorted, 0.95),
		Min:     &lo,
		Max:     &hi,
	}
}

// percentile uses the nearest-rank method on sorted samples.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	rank = max(0, min(rank, len(sorted)-1))
	return sorted[rank]
}

func toMillis(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

// MinOf returns the lesser of a and b. A nil side is unset and yields the
// other side.
func MinOf(a, b *float64) *float64 {
	switch {
	case a == nil:
		return copyFloat(b)
	case b == nil:
		return copyFloat(a)
	case *b < *a:
		return copyFloat(b)
	default:
		return copyFloat(a)
	}
}

// MaxOf returns the greater of a and b with the same unset rule as MinOf.
func MaxOf(a, b *float64) *float64 {
	switch {
	case a == nil:
		return copyFloat(b)
	case b == nil:
		return copyFloat(a)
	case *b > *a:
		return copyFloat(b)
	default:
		return copyFloat(a)
	}
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ratio returns num/den, or 0 when den is zero.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Efficiency returns avgMiss/avgHit, or 0 when either side has no samples.
func Efficiency(avgHit float64, hitSamples int64, avgMiss float64, missSamples int64) float64 {
	if hitSamples == 0 || missSamples == 0 || avgHit == 0 {
		return 0
	}
	return avgMiss / avgHit
}
