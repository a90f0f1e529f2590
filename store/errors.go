package store

import "errors"

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidPeriod indicates a period other than hourly or daily.
	ErrInvalidPeriod = errors.New("store: invalid period")

	// ErrInvalidRecord indicates a record without its identifying fields.
	ErrInvalidRecord = errors.New("store: invalid record")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store: closed")
)
