package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache operations and flush cycles as OpenTelemetry
// instruments.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; recording never blocks on export.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOp counts one cache operation. Native operations carry no latency.
	RecordOp(ctx context.Context, meta CacheMeta, op string, native bool, latency time.Duration)

	// RecordError counts one failed cache operation.
	RecordError(ctx context.Context, meta CacheMeta, native bool)

	// RecordFlush records one flush cycle with its duration and outcome.
	RecordFlush(ctx context.Context, meta CacheMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	ops          metric.Int64Counter
	opDuration   metric.Float64Histogram
	errors       metric.Int64Counter
	flushTotal   metric.Int64Counter
	flushErrors  metric.Int64Counter
	flushLatency metric.Float64Histogram
}

// NewMetrics creates the cache instruments on the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	m := &metricsImpl{}
	var err error

	if m.ops, err = meter.Int64Counter("cache.ops",
		metric.WithDescription("Cache operations by kind"),
		metric.WithUnit("{op}"),
	); err != nil {
		return nil, err
	}
	if m.opDuration, err = meter.Float64Histogram("cache.op.duration_ms",
		metric.WithDescription("Read-through operation latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.errors, err = meter.Int64Counter("cache.errors",
		metric.WithDescription("Failed cache operations"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.flushTotal, err = meter.Int64Counter("cache.flush.total",
		metric.WithDescription("Flush cycles attempted"),
		metric.WithUnit("{flush}"),
	); err != nil {
		return nil, err
	}
	if m.flushErrors, err = meter.Int64Counter("cache.flush.errors",
		metric.WithDescription("Flush cycles that failed"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.flushLatency, err = meter.Float64Histogram("cache.flush.duration_ms",
		metric.WithDescription("Flush cycle duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (m *metricsImpl) RecordOp(ctx context.Context, meta CacheMeta, op string, native bool, latency time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("cache.name", meta.Name),
		attribute.String("cache.op", op),
		attribute.Bool("cache.native", native),
	)
	m.ops.Add(ctx, 1, opt)
	if !native {
		m.opDuration.Record(ctx, millis(latency), opt)
	}
}

func (m *metricsImpl) RecordError(ctx context.Context, meta CacheMeta, native bool) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.name", meta.Name),
		attribute.Bool("cache.native", native),
	))
}

func (m *metricsImpl) RecordFlush(ctx context.Context, meta CacheMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attrs()...)

	m.flushTotal.Add(ctx, 1, opt)
	if err != nil {
		m.flushErrors.Add(ctx, 1, opt)
	}
	m.flushLatency.Record(ctx, millis(duration), opt)
}

type noopMetrics struct{}

// NoopMetrics returns a Metrics that records nothing.
func NoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordOp(context.Context, CacheMeta, string, bool, time.Duration) {}
func (noopMetrics) RecordError(context.Context, CacheMeta, bool)                     {}
func (noopMetrics) RecordFlush(context.Context, CacheMeta, time.Duration, error)     {}
