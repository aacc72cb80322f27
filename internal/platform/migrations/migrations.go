// Package migrations embeds the SQL schema for every supported database and
// applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedMigrations embed.FS

// TableName is the goose version table.
const TableName = "schema_migrations"

// Supported database drivers, as named in configuration.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnsupportedDriver is returned for a driver with no embedded schema.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Commands accepted by Run.
var Commands = []string{"up", "up-by-one", "down", "redo", "reset", "status", "version"}

// goose keeps its configuration in package globals
var gooseMu sync.Mutex

type target struct {
	dialect string
	dir     string
}

func targetFor(driver string) (target, error) {
	switch driver {
	case DriverPostgres:
		return target{dialect: "postgres", dir: "postgres"}, nil
	case DriverSQLite:
		return target{dialect: "sqlite3", dir: "sqlite"}, nil
	default:
		return target{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, driver string, logger *slog.Logger) error {
	return Run(ctx, db, driver, "up", logger)
}

// Run executes a goose command against db using the schema for driver.
func Run(ctx context.Context, db *sql.DB, driver, command string, logger *slog.Logger, args ...string) error {
	t, err := targetFor(driver)
	if err != nil {
		return err
	}
	if !isKnownCommand(command) {
		return fmt.Errorf("unknown migration command %q (expected one of %s)",
			command, strings.Join(Commands, ", "))
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(
		slog.String("component", "migrations"),
		slog.String("command", command),
		slog.String("dialect", t.dialect),
	)

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetTableName(TableName)
	goose.SetLogger(&slogGooseLogger{logger: log})
	if err := goose.SetDialect(t.dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	log.Info("running migration command")
	if err := goose.RunContext(ctx, command, db, t.dir, args...); err != nil {
		log.Error("migration command failed", slog.String("error", err.Error()))
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	log.Info("migration command completed")
	return nil
}

// Version returns the current schema version.
func Version(ctx context.Context, db *sql.DB, driver string) (int64, error) {
	t, err := targetFor(driver)
	if err != nil {
		return 0, err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetTableName(TableName)
	if err := goose.SetDialect(t.dialect); err != nil {
		return 0, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}

func isKnownCommand(command string) bool {
	for _, c := range Commands {
		if c == command {
			return true
		}
	}
	return false
}

// slogGooseLogger routes goose output through slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level without exiting; Run reports the failure.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
