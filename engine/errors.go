package engine

import "errors"

var (
	// ErrClosed is returned by lifecycle and store operations after Close.
	ErrClosed = errors.New("engine: closed")

	// ErrNilConfig is returned by Open without a configuration.
	ErrNilConfig = errors.New("engine: nil config")
)
