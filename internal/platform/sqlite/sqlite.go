// Package sqlite provides SQLite implementations of the store interfaces,
// backed by the pure-Go modernc.org/sqlite driver. It serves local
// development and tests; production deployments use the postgres package.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// timeLayout is fixed width so that text comparison in SQL matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// dayLayout is the storage format of study_activity.day.
const dayLayout = "2006-01-02"

// fileParams make writers on a shared database file queue for the write
// lock at BEGIN instead of failing with SQLITE_BUSY mid-transaction.
const fileParams = "_pragma=busy_timeout(5000)&_txlock=immediate"

// Open opens a SQLite database and verifies the connection.
//
// An in-memory database exists per connection, so the pool is pinned to a
// single connection for memory DSNs. Callers holding an open transaction on
// such a database must route every query through that transaction.
// File databases wait up to five seconds for the write lock and take it when
// a transaction begins.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, WithFileParams(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if IsMemoryDSN(dsn) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// IsMemoryDSN reports whether dsn names an in-memory database.
func IsMemoryDSN(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// WithFileParams adds the busy timeout and immediate transaction locking to a
// file DSN. Memory DSNs are returned unchanged.
func WithFileParams(dsn string) string {
	if IsMemoryDSN(dsn) {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + fileParams
	}
	return dsn + "?" + fileParams
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func formatDay(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

func parseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored day %q: %w", s, err)
	}
	return t, nil
}
