package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/studybuddy/studybuddy-api/internal/config"
	"github.com/studybuddy/studybuddy-api/internal/platform/migrations"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [" + strings.Join(migrations.Commands, "|") + "]",
		Short:     "Manage the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrations.Commands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := setupAppLogger(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := setupAppDatabase(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					logger.Error("failed to close database", "error", err)
				}
			}()

			if err := runMigrations(ctx, db, cfg, args[0], logger); err != nil {
				return err
			}
			if args[0] == "version" || args[0] == "status" {
				return nil
			}

			version, err := migrations.Version(ctx, db, cfg.Database.Driver)
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}

// runMigrations executes one goose command for the configured driver.
func runMigrations(ctx context.Context, db *sql.DB, cfg *config.Config, command string, logger *slog.Logger) error {
	logger.Info("executing migrations", "command", command, "driver", cfg.Database.Driver)
	if err := migrations.Run(ctx, db, cfg.Database.Driver, command, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
