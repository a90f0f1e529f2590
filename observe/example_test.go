package observe_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/cachestats/observe"
)

func ExampleConfig_Validate() {
	cfg := observe.Config{
		ServiceName: "catalog",
		Logging:     observe.LoggingConfig{Enabled: true, Level: "verbose"},
	}
	err := cfg.Validate()
	fmt.Println(errors.Is(err, observe.ErrInvalidLogLevel))
	// Output:
	// true
}

func ExampleCacheMeta_SpanName() {
	fmt.Println(observe.CacheMeta{Name: "books", Store: "redis"}.SpanName())
	// Output:
	// cache.flush.books
}

func ExampleLogger_WithCache() {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &buf).
		WithCache(observe.CacheMeta{Name: "books", Store: "postgres"})

	logger.Info(context.Background(), "store opened", observe.Field{Key: "dsn", Value: "postgres://app:pw@db/stats"})

	out := buf.String()
	fmt.Println(strings.Contains(out, `"cache.name":"books"`))
	fmt.Println(strings.Contains(out, `"dsn":"[REDACTED]"`))
	// Output:
	// true
	// true
}

func ExampleMiddleware_Wrap() {
	ctx := context.Background()

	obs, _ := observe.NewObserver(ctx, observe.Config{
		ServiceName: "example",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1},
		Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "none"},
	})
	defer func() { _ = obs.Shutdown(ctx) }()

	mw, _ := observe.MiddlewareFromObserver(obs)
	flush := mw.Wrap(observe.CacheMeta{Name: "books"}, func(ctx context.Context) ([]observe.Field, error) {
		return []observe.Field{{Key: "rows", Value: 2}}, nil
	})

	fields, err := flush(ctx)
	fmt.Println(fields[0].Key, fields[0].Value, err)
	// Output:
	// rows 2 <nil>
}

func ExampleParseLogLevel() {
	for _, s := range []string{"debug", "warn", "unknown"} {
		fmt.Printf("%s -> %s\n", s, observe.ParseLogLevel(s))
	}
	// Output:
	// debug -> debug
	// warn -> warn
	// unknown -> info
}
