package store

import (
	"context"
	"time"
)

// Store persists aggregate and per-key telemetry rows.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: every method honors cancellation; timeouts belong to the
// implementation, not the caller.
// - Errors: ReadAggregate and ReadKey return ErrNotFound when the row is
// absent. Upserts replace the full row; merging is the caller's job.
// - Ownership: returned records are copies the caller may mutate.
// - Unset: nil minimum and maximum latencies round-trip as nil.
type Store interface {
	// UpsertAggregate inserts or replaces the row for
	// (r.Cache, r.Period, r.BucketStart).
	UpsertAggregate(ctx context.Context, r *AggregateRecord) error

	// ReadAggregate returns the row for (cache, period, bucket).
	ReadAggregate(ctx context.Context, cache string, period Period, bucket time.Time) (*AggregateRecord, error)

	// QueryAggregates returns rows whose bucket start lies in [from, to],
	// newest first. Zero bounds are open.
	QueryAggregates(ctx context.Context, cache string, period Period, from, to time.Time) ([]*AggregateRecord, error)

	// UpsertKey inserts or replaces the row for (r.Cache, r.Key).
	UpsertKey(ctx context.Context, r *KeyRecord) error

	// ReadKey returns the row for (cache, key).
	ReadKey(ctx context.Context, cache, key string) (*KeyRecord, error)

	// QueryKeys returns the key rows of cache matching filter.
	QueryKeys(ctx context.Context, cache string, filter KeyFilter) ([]*KeyRecord, error)

	// Commit upserts every row of b as one unit: either all rows are
	// written or none is. An empty batch is a no-op.
	Commit(ctx context.Context, b *Batch) error

	// DeleteAggregates removes every aggregate row of cache.
	DeleteAggregates(ctx context.Context, cache string) error

	// DeleteKeys removes every key row of cache.
	DeleteKeys(ctx context.Context, cache string) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
