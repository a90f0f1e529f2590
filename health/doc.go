// Package health reports whether the telemetry pipeline of a cache is
// keeping up.
//
// A StoreChecker pings the durable store. A FlushChecker compares the time
// of the last successful flush with the flush interval and watches the
// store circuit breaker: a flush older than three intervals is degraded,
// older than ten (or an open circuit) is unhealthy. An Aggregator runs the
// checkers together and folds their results into a Report.
//
//	agg := health.NewAggregator()
//	agg.Register("store", health.NewStoreChecker(st))
//	agg.Register("flush", health.NewFlushChecker(health.FlushCheckerConfig{Source: sched}))
//	report := agg.Run(ctx)
package health
