package engine

import (
	"context"
	"time"

	"github.com/jonwraymond/cachestats/metrics"
)

// RecordHit records a read-through hit. key may be empty.
func (e *Engine) RecordHit(latency time.Duration, key string, meta metrics.KeyMetadata) {
	e.record(metrics.OpHit, latency, key, meta)
}

// RecordMiss records a read-through miss.
func (e *Engine) RecordMiss(latency time.Duration, key string, meta metrics.KeyMetadata) {
	e.record(metrics.OpMiss, latency, key, meta)
}

// RecordSet records a read-through set.
func (e *Engine) RecordSet(latency time.Duration, key string, meta metrics.KeyMetadata) {
	e.record(metrics.OpSet, latency, key, meta)
}

// RecordDelete records a read-through delete.
func (e *Engine) RecordDelete(latency time.Duration, key string, meta metrics.KeyMetadata) {
	e.record(metrics.OpDelete, latency, key, meta)
}

// RecordNativeSet records a direct set that bypassed read-through.
func (e *Engine) RecordNativeSet(key string, meta metrics.KeyMetadata) {
	e.record(metrics.OpNativeSet, 0, key, meta)
}

// RecordNativeGet records a direct get.
func (e *Engine) RecordNativeGet(key string, meta metrics.KeyMetadata) {
	e.record(metrics.OpNativeGet, 0, key, meta)
}

// RecordNativeDelete records a direct delete.
func (e *Engine) RecordNativeDelete(key string, meta metrics.KeyMetadata) {
	e.record(metrics.OpNativeDelete, 0, key, meta)
}

// RecordNativeClear records a direct clear.
func (e *Engine) RecordNativeClear(key string, meta metrics.KeyMetadata) {
	e.record(metrics.OpNativeClear, 0, key, meta)
}

// RecordNativeDeleteByTag records a tag invalidation.
func (e *Engine) RecordNativeDeleteByTag(key string, meta metrics.KeyMetadata) {
	e.record(metrics.OpNativeDeleteByTag, 0, key, meta)
}

// RecordError counts a failed read-through operation.
func (e *Engine) RecordError(err error) {
	if !e.acc.MetricsEnabled() {
		return
	}
	e.acc.RecordError(err)
	e.otel.RecordError(context.Background(), e.meta, false)
}

// RecordNativeError counts a failed native operation.
func (e *Engine) RecordNativeError(err error) {
	if !e.acc.MetricsEnabled() {
		return
	}
	e.acc.RecordNativeError(err)
	e.otel.RecordError(context.Background(), e.meta, true)
}

func (e *Engine) record(op metrics.Op, latency time.Duration, key string, meta metrics.KeyMetadata) {
	e.acc.Record(op, latency, key, meta)
	if e.acc.MetricsEnabled() {
		e.otel.RecordOp(context.Background(), e.meta, op.String(), op.Native(), latency)
	}
}
