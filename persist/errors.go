package persist

import "errors"

var (
	// ErrFlushInProgress is returned by TryFlush while another flush runs.
	ErrFlushInProgress = errors.New("persist: flush in progress")

	// ErrMissingCache indicates an empty cache name.
	ErrMissingCache = errors.New("persist: cache name is required")

	// ErrNilStore indicates a nil store.Store.
	ErrNilStore = errors.New("persist: store is nil")

	// ErrNilAccumulator indicates a nil metrics.Accumulator.
	ErrNilAccumulator = errors.New("persist: accumulator is nil")

	// ErrSchedulerRunning is returned by Start on a running scheduler.
	ErrSchedulerRunning = errors.New("persist: scheduler already running")
)
