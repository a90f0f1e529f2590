package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/cachestats/store"
)

var aggregateColumns = func() []string {
	cols := []string{"cache", "period", "bucket_start"}
	cols = append(cols, counterColumns...)
	cols = append(cols, latencyColumns()...)
	return append(cols,
		"hit_ratio", "throughput", "error_rate", "cache_efficiency",
		"native_throughput", "native_error_rate", "active_ms", "updated_at",
	)
}()

var (
	upsertAggregateSQL = upsertSQL("cache_aggregates", aggregateColumns, []string{"cache", "period", "bucket_start"})
	selectAggregateSQL = "SELECT " + strings.Join(aggregateColumns, ", ") + " FROM cache_aggregates"
)

func aggregateArgs(r *store.AggregateRecord) []any {
	args := []any{r.Cache, string(r.Period), toMicros(r.BucketStart)}
	args = append(args, counterArgs(r.Counters)...)
	args = append(args, latencyArgs(r.HitLatency, r.MissLatency, r.SetLatency, r.DeleteLatency)...)
	return append(args,
		r.HitRatio, r.Throughput, r.ErrorRate, r.CacheEfficiency,
		r.NativeThroughput, r.NativeErrorRate, r.ActiveMs, toMicros(r.UpdatedAt),
	)
}

func scanAggregate(sc scanner) (*store.AggregateRecord, error) {
	var (
		r                   store.AggregateRecord
		period              string
		bucket, updated     int64
		hit, miss, set, del latencyScan
	)
	dest := []any{&r.Cache, &period, &bucket}
	dest = append(dest, counterDest(&r.Counters)...)
	dest = append(dest, hit.dest()...)
	dest = append(dest, miss.dest()...)
	dest = append(dest, set.dest()...)
	dest = append(dest, del.dest()...)
	dest = append(dest,
		&r.HitRatio, &r.Throughput, &r.ErrorRate, &r.CacheEfficiency,
		&r.NativeThroughput, &r.NativeErrorRate, &r.ActiveMs, &updated,
	)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}

	r.Period = store.Period(period)
	r.BucketStart = fromMicros(bucket)
	r.UpdatedAt = fromMicros(updated)
	r.HitLatency = hit.latency()
	r.MissLatency = miss.latency()
	r.SetLatency = set.latency()
	r.DeleteLatency = del.latency()
	return &r, nil
}

// UpsertAggregate implements store.Store.
func (s *Store) UpsertAggregate(ctx context.Context, r *store.AggregateRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(upsertAggregateSQL), aggregateArgs(r)...); err != nil {
		return fmt.Errorf("upsert aggregate: %w", err)
	}
	return nil
}

// ReadAggregate implements store.Store.
func (s *Store) ReadAggregate(ctx context.Context, cache string, period store.Period, bucket time.Time) (*store.AggregateRecord, error) {
	q := selectAggregateSQL + " WHERE cache = ? AND period = ? AND bucket_start = ?"
	row := s.db.QueryRowContext(ctx, s.rebind(q), cache, string(period), toMicros(bucket))

	r, err := scanAggregate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read aggregate: %w", err)
	}
	return r, nil
}

// QueryAggregates implements store.Store.
func (s *Store) QueryAggregates(ctx context.Context, cache string, period store.Period, from, to time.Time) ([]*store.AggregateRecord, error) {
	var b strings.Builder
	b.WriteString(selectAggregateSQL)
	b.WriteString(" WHERE cache = ? AND period = ?")
	args := []any{cache, string(period)}
	if !from.IsZero() {
		b.WriteString(" AND bucket_start >= ?")
		args = append(args, toMicros(from))
	}
	if !to.IsZero() {
		b.WriteString(" AND bucket_start <= ?")
		args = append(args, toMicros(to))
	}
	b.WriteString(" ORDER BY bucket_start DESC")

	rows, err := s.db.QueryContext(ctx, s.rebind(b.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("query aggregates: %w", err)
	}
	defer rows.Close()

	var out []*store.AggregateRecord
	for rows.Next() {
		r, err := scanAggregate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteAggregates implements store.Store.
func (s *Store) DeleteAggregates(ctx context.Context, cache string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM cache_aggregates WHERE cache = ?"), cache); err != nil {
		return fmt.Errorf("delete aggregates: %w", err)
	}
	return nil
}
