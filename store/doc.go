// Package store defines the durable row contract for cache telemetry.
//
// Two row families are persisted:
//
//   - AggregateRecord: one row per (cache, period, bucket start), where period
//     is hourly or daily and the bucket start is the UTC boundary of the hour
//     or day.
//   - KeyRecord: one row per (cache, key), cumulative until an explicit clear.
//
// Backends live in sub-packages: memstore (in-process), sqlstore (SQLite and
// PostgreSQL) and redisstore. Every backend stores unset minimum and maximum
// latencies as absent values, never as zero. Commit applies a Batch as one
// unit: a memstore lock, a SQL transaction or a redis MULTI/EXEC.
package store
