package health

import "errors"

var (
	// ErrCheckFailed marks a failed check whose cause has no sentinel of its own.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is set on results of checks that outlived the timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrFlushStale is set when no flush succeeded within the allowed number
	// of intervals.
	ErrFlushStale = errors.New("health: flush stale")
)
