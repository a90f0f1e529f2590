// Package observe provides the telemetry used around a cache: structured
// JSON logging, OpenTelemetry instruments for cache operations and flushes,
// and flush spans.
//
// It is a pure instrumentation library. Nothing here touches the live
// metric window or the durable store; the engine and the persistence
// coordinator call into it.
package observe
