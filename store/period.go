package store

import (
	"fmt"
	"time"
)

// Period is the granularity of an aggregate row.
type Period string

const (
	PeriodHourly Period = "hourly"
	PeriodDaily  Period = "daily"
)

// Periods lists every supported period, finest first.
var Periods = []Period{PeriodHourly, PeriodDaily}

// Valid reports whether p is a supported period.
func (p Period) Valid() bool {
	return p == PeriodHourly || p == PeriodDaily
}

// Bucket returns the UTC start of the bucket containing t.
func (p Period) Bucket(t time.Time) time.Time {
	t = t.UTC()
	switch p {
	case PeriodDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return t.Truncate(time.Hour)
	}
}

// ParsePeriod parses "hourly" or "daily".
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}
