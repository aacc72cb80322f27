package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/studybuddy/studybuddy-api/internal/config"
	"github.com/studybuddy/studybuddy-api/internal/platform/migrations"
	"github.com/studybuddy/studybuddy-api/internal/platform/sqlite"
)

// setupAppDatabase opens the configured database and verifies the
// connection.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch cfg.Database.Driver {
	case migrations.DriverSQLite:
		db, err := sqlite.Open(pingCtx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		logger.Info("database connection established", "driver", cfg.Database.Driver)
		return db, nil

	case migrations.DriverPostgres:
		db, err := sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}

		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetimeMinutes) * time.Minute)

		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("database connection established", "driver", cfg.Database.Driver)
		return db, nil

	default:
		return nil, fmt.Errorf("%w: %q", migrations.ErrUnsupportedDriver, cfg.Database.Driver)
	}
}
