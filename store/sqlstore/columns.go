package sqlstore

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jonwraymond/cachestats/metrics"
	"github.com/jonwraymond/cachestats/store"
)

type scanner interface {
	Scan(dest ...any) error
}

var counterColumns = []string{
	"hits", "misses", "sets", "deletes", "errors",
	"native_sets", "native_gets", "native_deletes", "native_clears", "native_delete_by_tags", "native_errors",
}

var latencyClasses = []string{"hit", "miss", "set", "delete"}

func latencyColumns() []string {
	out := make([]string, 0, len(latencyClasses)*4)
	for _, c := range latencyClasses {
		out = append(out, c+"_avg", c+"_p95", c+"_min", c+"_max")
	}
	return out
}

func counterArgs(c metrics.Counters) []any {
	return []any{
		c.Hits, c.Misses, c.Sets, c.Deletes, c.Errors,
		c.NativeSets, c.NativeGets, c.NativeDeletes, c.NativeClears, c.NativeDeleteByTags, c.NativeErrors,
	}
}

func counterDest(c *metrics.Counters) []any {
	return []any{
		&c.Hits, &c.Misses, &c.Sets, &c.Deletes, &c.Errors,
		&c.NativeSets, &c.NativeGets, &c.NativeDeletes, &c.NativeClears, &c.NativeDeleteByTags, &c.NativeErrors,
	}
}

func latencyArgs(ls ...store.Latency) []any {
	out := make([]any, 0, len(ls)*4)
	for _, l := range ls {
		out = append(out, l.Avg, l.P95, nullFloat(l.Min), nullFloat(l.Max))
	}
	return out
}

// latencyScan receives one latency class from a row.
type latencyScan struct {
	avg, p95 float64
	min, max sql.NullFloat64
}

func (l *latencyScan) dest() []any {
	return []any{&l.avg, &l.p95, &l.min, &l.max}
}

func (l *latencyScan) latency() store.Latency {
	return store.Latency{Avg: l.avg, P95: l.p95, Min: floatPtr(l.min), Max: floatPtr(l.max)}
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func toMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMicro()
}

func fromMicros(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// upsertSQL builds an INSERT that replaces every non-key column on conflict.
func upsertSQL(table string, columns []string, conflict []string) string {
	isKey := make(map[string]bool, len(conflict))
	for _, c := range conflict {
		isKey[c] = true
	}
	sets := make([]string, 0, len(columns))
	for _, c := range columns {
		if !isKey[c] {
			sets = append(sets, c+" = excluded."+c)
		}
	}
	return "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" +
		placeholders(len(columns)) + ") ON CONFLICT (" + strings.Join(conflict, ", ") +
		") DO UPDATE SET " + strings.Join(sets, ", ")
}
