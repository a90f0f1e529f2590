package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type middlewareHarness struct {
	mw     *Middleware
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
}

func newMiddlewareHarness(t *testing.T) middlewareHarness {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	metrics, reader := newTestMetrics(t)
	logs := &bytes.Buffer{}

	mw := NewMiddleware(NewTracer(tp.Tracer("test")), metrics, NewLoggerWithWriter("debug", logs))
	tick := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	mw.now = func() time.Time {
		tick = tick.Add(25 * time.Millisecond)
		return tick
	}
	return middlewareHarness{mw: mw, spans: spans, reader: reader, logs: logs}
}

func TestMiddleware_SuccessPath(t *testing.T) {
	h := newMiddlewareHarness(t)
	meta := CacheMeta{Name: "books", Store: "memory"}

	fields, err := h.mw.Wrap(meta, func(ctx context.Context) ([]Field, error) {
		return []Field{{Key: "flush.id", Value: "f-1"}, {Key: "rows", Value: 4}}, nil
	})(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("fields not returned: %v", fields)
	}

	spans := h.spans.Ended()
	if len(spans) != 1 || spans[0].Name() != "cache.flush.books" {
		t.Fatalf("unexpected spans: %v", spans)
	}
	attrs := spanAttrs(spans[0])
	if attrs["flush.id"].AsString() != "f-1" || attrs["rows"].AsInt64() != 4 {
		t.Errorf("result fields missing from span: %v", attrs)
	}

	rm := collect(t, h.reader)
	if got := sumTotal(t, rm, "cache.flush.total"); got != 1 {
		t.Errorf("cache.flush.total = %d, want 1", got)
	}
	if got := sumTotal(t, rm, "cache.flush.errors"); got != 0 {
		t.Errorf("cache.flush.errors = %d, want 0", got)
	}

	e := decodeEntries(t, h.logs)[0]
	if e["level"] != "debug" || e["msg"] != "flush completed" {
		t.Errorf("unexpected log entry: %v", e)
	}
	if e["duration_ms"] != float64(25) {
		t.Errorf("duration_ms = %v, want 25", e["duration_ms"])
	}
	if e["cache.name"] != "books" || e["flush.id"] != "f-1" {
		t.Errorf("missing context fields: %v", e)
	}
}

func TestMiddleware_ErrorPath(t *testing.T) {
	h := newMiddlewareHarness(t)
	boom := errors.New("store down")

	_, err := h.mw.Wrap(CacheMeta{Name: "books"}, func(ctx context.Context) ([]Field, error) {
		return nil, boom
	})(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	if s := h.spans.Ended()[0]; s.Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", s.Status().Code)
	}
	if got := sumTotal(t, collect(t, h.reader), "cache.flush.errors"); got != 1 {
		t.Errorf("cache.flush.errors = %d, want 1", got)
	}
	e := decodeEntries(t, h.logs)[0]
	if e["level"] != "error" || e["error"] != "store down" {
		t.Errorf("unexpected log entry: %v", e)
	}
}

func TestMiddleware_PropagatesSpanContext(t *testing.T) {
	h := newMiddlewareHarness(t)

	var inner trace.SpanContext
	_, _ = h.mw.Wrap(CacheMeta{Name: "books"}, func(ctx context.Context) ([]Field, error) {
		inner = trace.SpanContextFromContext(ctx)
		return nil, nil
	})(context.Background())

	if !inner.IsValid() || inner.SpanID() != h.spans.Ended()[0].SpanContext().SpanID() {
		t.Error("wrapped function should run inside the flush span")
	}
}

func TestNewMiddleware_NilComponents(t *testing.T) {
	mw := NewMiddleware(nil, nil, nil)
	if _, err := mw.Wrap(CacheMeta{Name: "x"}, func(context.Context) ([]Field, error) { return nil, nil })(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMiddlewareFromObserver(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Fatalf("err = %v, want ErrNilObserver", err)
	}
	mw, err := MiddlewareFromObserver(Noop())
	if err != nil || mw == nil {
		t.Fatalf("MiddlewareFromObserver(Noop()) = %v, %v", mw, err)
	}
}
