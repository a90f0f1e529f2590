package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CacheMeta identifies the cache a piece of telemetry belongs to.
type CacheMeta struct {
	Name  string // cache name (required)
	Store string // durable backend: memory|sqlite|postgres|redis (optional)
}

// SpanName returns the flush span name: cache.flush.<name>.
func (m CacheMeta) SpanName() string {
	if m.Name == "" {
		return "cache.flush"
	}
	return "cache.flush." + m.Name
}

// Validate reports ErrMissingCacheName when Name is empty.
func (m CacheMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingCacheName
	}
	return nil
}

func (m CacheMeta) attrs() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("cache.name", m.Name)}
	if m.Store != "" {
		attrs = append(attrs, attribute.String("cache.store", m.Store))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing around flush cycles.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a flush span for the cache.
	StartSpan(ctx context.Context, meta CacheMeta, attrs ...attribute.KeyValue) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta CacheMeta, extra ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs := append(meta.attrs(), attribute.Bool("cache.error", false))
	attrs = append(attrs, extra...)

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("cache.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

// NoopTracer returns a Tracer that records nothing.
func NoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CacheMeta, _ ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
