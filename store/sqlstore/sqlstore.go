// Package sqlstore is a store.Store over database/sql.
//
// Two dialects are supported: SQLite through modernc.org/sqlite (pure Go, no
// cgo) and PostgreSQL through github.com/lib/pq. Both share one schema;
// timestamps are stored as UTC microseconds since the epoch and unset
// latencies as NULL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jonwraymond/cachestats/store"
)

// Dialect selects the SQL flavor.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Store is the SQL-backed store.Store implementation.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ store.Store = (*Store)(nil)

// Options tunes the connection pool. Zero values keep the driver defaults.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// OpenSQLite opens a SQLite database at path and runs migrations.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	return open(ctx, db, DialectSQLite)
}

// OpenPostgres connects to PostgreSQL with a lib/pq DSN and runs migrations.
func OpenPostgres(ctx context.Context, dsn string, opts Options) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnLifetime)
	}

	return open(ctx, db, DialectPostgres)
}

// New wraps an existing handle. The caller has already chosen the driver
// matching dialect.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("sqlstore: unknown dialect %q", dialect)
	}
	return open(ctx, db, dialect)
}

func open(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	s := &Store{db: db, dialect: dialect}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Dialect returns the store's SQL flavor.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Stats exposes the pool statistics.
func (s *Store) Stats() sql.DBStats {
	return s.db.Stats()
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Commit implements store.Store inside one transaction.
func (s *Store) Commit(ctx context.Context, b *store.Batch) (err error) {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	upsertAgg, upsertKey := s.rebind(upsertAggregateSQL), s.rebind(upsertKeySQL)
	for _, r := range b.Aggregates {
		if _, err := tx.ExecContext(ctx, upsertAgg, aggregateArgs(r)...); err != nil {
			return fmt.Errorf("commit aggregate: %w", err)
		}
	}
	for _, r := range b.Keys {
		if _, err := tx.ExecContext(ctx, upsertKey, keyArgs(r)...); err != nil {
			return fmt.Errorf("commit key %q: %w", r.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
