// Package metrics accumulates cache telemetry in bounded memory.
//
// An Accumulator owns the current Window: scalar counters for read-through
// and native operations, four FIFO-capped latency sample buffers and a
// capacity-bounded table of per-key statistics. Aggregate and per-key
// recording are gated by independent flags; a disabled path returns before
// taking the lock.
//
// Derived figures (averages, percentiles, ratios, throughput) are computed on
// read from a sorted copy of the samples, never on the write path.
package metrics
