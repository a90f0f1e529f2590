package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// FlushFunc is one flush cycle. The returned fields are attached to the
// completion log entry and, when their values are strings or integers, to
// the flush span.
type FlushFunc func(ctx context.Context) ([]Field, error)

// Middleware wraps flush cycles with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a FlushFunc safe for concurrent use.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	now     func() time.Time
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NoopTracer()
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Wrap instruments fn as a flush of the cache described by meta.
func (m *Middleware) Wrap(meta CacheMeta, fn FlushFunc) FlushFunc {
	logger := m.logger.WithCache(meta)

	return func(ctx context.Context) ([]Field, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := m.now()

		fields, err := fn(ctx)

		duration := m.now().Sub(start)
		for _, f := range fields {
			switch v := f.Value.(type) {
			case string:
				span.SetAttributes(attribute.String(f.Key, v))
			case int:
				span.SetAttributes(attribute.Int(f.Key, v))
			case int64:
				span.SetAttributes(attribute.Int64(f.Key, v))
			}
		}
		m.tracer.EndSpan(span, err)
		m.metrics.RecordFlush(ctx, meta, duration, err)

		logFields := append([]Field{{Key: "duration_ms", Value: millis(duration)}}, fields...)
		if err != nil {
			logFields = append(logFields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "flush failed", logFields...)
		} else {
			logger.Debug(ctx, "flush completed", logFields...)
		}

		return fields, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
