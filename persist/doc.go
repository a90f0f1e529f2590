// Package persist moves drained metric windows into durable storage.
//
// A Coordinator merges one window into the hourly and daily aggregate rows
// of its cache and into the per-key rows, reading each existing row and
// committing every merged row in one store.Batch, so a flush lands whole or
// not at all. Flushes and clears of one coordinator never interleave. A
// Scheduler drives the coordinator on a
// fixed interval, detaching the live window before each flush and restoring
// it when the flush fails so the next tick retries with the combined data.
//
// Merging is count-weighted: every latency summary is weighted by the
// operation counter it belongs to (hits weight the hit latency, and so on).
// Percentiles merged this way are an approximation; exact p95 would require
// the raw samples of every merged window.
package persist
