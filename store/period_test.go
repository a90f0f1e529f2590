package store

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodBucket(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 47, 12, 500, time.FixedZone("CET", 3600))

	tests := []struct {
		period Period
		want   time.Time
	}{
		{PeriodHourly, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)},
		{PeriodDaily, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			got := tt.period.Bucket(at)
			if !got.Equal(tt.want) || got.Location() != time.UTC {
				t.Errorf("Bucket() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	if p, err := ParsePeriod("daily"); err != nil || p != PeriodDaily {
		t.Errorf("ParsePeriod(daily) = %q, %v", p, err)
	}
	if _, err := ParsePeriod("weekly"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("ParsePeriod(weekly) error = %v, want ErrInvalidPeriod", err)
	}
}

func TestRecordValidate(t *testing.T) {
	bucket := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"ok", (&AggregateRecord{Cache: "c", Period: PeriodHourly, BucketStart: bucket}).Validate(), nil},
		{"no cache", (&AggregateRecord{Period: PeriodHourly, BucketStart: bucket}).Validate(), ErrInvalidRecord},
		{"bad period", (&AggregateRecord{Cache: "c", Period: "weekly", BucketStart: bucket}).Validate(), ErrInvalidPeriod},
		{"no bucket", (&AggregateRecord{Cache: "c", Period: PeriodDaily}).Validate(), ErrInvalidRecord},
		{"key ok", (&KeyRecord{Cache: "c", Key: "k"}).Validate(), nil},
		{"key missing", (&KeyRecord{Cache: "c"}).Validate(), ErrInvalidRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("Validate() = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	v := 3.0
	r := &KeyRecord{Cache: "c", Key: "k", MinLatency: &v, HitLatency: Latency{Min: &v}}
	c := r.Clone()
	*c.MinLatency = 9
	*c.HitLatency.Min = 9
	if *r.MinLatency != 3 || *r.HitLatency.Min != 3 {
		t.Error("Clone() shares float pointers with the original")
	}
}
