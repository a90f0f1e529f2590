package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/cachestats/store"
)

var metadataColumns = []string{
	"meta_data_type", "meta_service", "meta_entity", "meta_tenant", "meta_user",
	"meta_locale", "meta_context", "meta_query", "meta_subject",
}

var keyColumns = func() []string {
	cols := []string{"cache", "cache_key"}
	cols = append(cols, counterColumns...)
	cols = append(cols, latencyColumns()...)
	cols = append(cols, "min_latency", "max_latency", "hit_ratio", "cache_efficiency")
	cols = append(cols, metadataColumns...)
	return append(cols, "first_seen", "last_accessed", "updated_at")
}()

var (
	upsertKeySQL = upsertSQL("cache_keys", keyColumns, []string{"cache", "cache_key"})
	selectKeySQL = "SELECT " + strings.Join(keyColumns, ", ") + " FROM cache_keys"
)

const trafficExpr = "(hits + misses + native_sets + native_gets + native_deletes + native_clears + native_delete_by_tags)"

func keyArgs(r *store.KeyRecord) []any {
	args := []any{r.Cache, r.Key}
	args = append(args, counterArgs(r.Counters)...)
	args = append(args, latencyArgs(r.HitLatency, r.MissLatency, r.SetLatency, r.DeleteLatency)...)
	args = append(args, nullFloat(r.MinLatency), nullFloat(r.MaxLatency), r.HitRatio, r.CacheEfficiency)
	m := r.Metadata
	args = append(args, m.DataType, m.Service, m.Entity, m.Tenant, m.User, m.Locale, m.Context, m.Query, m.Subject)
	return append(args, toMicros(r.FirstSeen), toMicros(r.LastAccessed), toMicros(r.UpdatedAt))
}

func scanKey(sc scanner) (*store.KeyRecord, error) {
	var (
		r                        store.KeyRecord
		hit, miss, set, del      latencyScan
		minLat, maxLat           sql.NullFloat64
		firstSeen, accessed, upd int64
	)
	m := &r.Metadata
	dest := []any{&r.Cache, &r.Key}
	dest = append(dest, counterDest(&r.Counters)...)
	dest = append(dest, hit.dest()...)
	dest = append(dest, miss.dest()...)
	dest = append(dest, set.dest()...)
	dest = append(dest, del.dest()...)
	dest = append(dest, &minLat, &maxLat, &r.HitRatio, &r.CacheEfficiency)
	dest = append(dest, &m.DataType, &m.Service, &m.Entity, &m.Tenant, &m.User, &m.Locale, &m.Context, &m.Query, &m.Subject)
	dest = append(dest, &firstSeen, &accessed, &upd)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}

	r.HitLatency = hit.latency()
	r.MissLatency = miss.latency()
	r.SetLatency = set.latency()
	r.DeleteLatency = del.latency()
	r.MinLatency = floatPtr(minLat)
	r.MaxLatency = floatPtr(maxLat)
	r.FirstSeen = fromMicros(firstSeen)
	r.LastAccessed = fromMicros(accessed)
	r.UpdatedAt = fromMicros(upd)
	return &r, nil
}

// UpsertKey implements store.Store.
func (s *Store) UpsertKey(ctx context.Context, r *store.KeyRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(upsertKeySQL), keyArgs(r)...); err != nil {
		return fmt.Errorf("upsert key: %w", err)
	}
	return nil
}

// ReadKey implements store.Store.
func (s *Store) ReadKey(ctx context.Context, cache, key string) (*store.KeyRecord, error) {
	q := selectKeySQL + " WHERE cache = ? AND cache_key = ?"
	r, err := scanKey(s.db.QueryRowContext(ctx, s.rebind(q), cache, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}
	return r, nil
}

// QueryKeys implements store.Store.
func (s *Store) QueryKeys(ctx context.Context, cache string, f store.KeyFilter) ([]*store.KeyRecord, error) {
	var b strings.Builder
	b.WriteString(selectKeySQL)
	b.WriteString(" WHERE cache = ?")
	args := []any{cache}

	if f.Key != "" {
		b.WriteString(" AND cache_key = ?")
		args = append(args, f.Key)
	}
	if f.Prefix != "" {
		b.WriteString(" AND substr(cache_key, 1, ?) = ?")
		args = append(args, len([]rune(f.Prefix)), f.Prefix)
	}
	if f.Tenant != "" {
		b.WriteString(" AND meta_tenant = ?")
		args = append(args, f.Tenant)
	}
	if !f.AccessedFrom.IsZero() {
		b.WriteString(" AND last_accessed >= ?")
		args = append(args, toMicros(f.AccessedFrom))
	}
	if !f.AccessedTo.IsZero() {
		b.WriteString(" AND last_accessed <= ?")
		args = append(args, toMicros(f.AccessedTo))
	}

	switch f.Order {
	case store.OrderLeastRecent:
		b.WriteString(" ORDER BY last_accessed ASC, cache_key ASC")
	default:
		b.WriteString(" ORDER BY " + trafficExpr + " DESC, last_accessed DESC, cache_key ASC")
	}
	if f.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(b.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	var out []*store.KeyRecord
	for rows.Next() {
		r, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteKeys implements store.Store.
func (s *Store) DeleteKeys(ctx context.Context, cache string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM cache_keys WHERE cache = ?"), cache); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}
