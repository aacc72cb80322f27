// Package main implements the studybuddy server binary: the HTTP API for
// spaced-repetition flashcards plus the migrate and token maintenance
// commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/studybuddy/studybuddy-api/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Configuration flags are persistent so
// that every subcommand accepts them.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studybuddy",
		Short:         "Spaced-repetition flashcard API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String(config.ConfigFlag, "", "path to a config file (default ./config.yaml if present)")
	flags.Int("port", 0, "HTTP listen port")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("database-driver", "", "storage backend: postgres or sqlite")
	flags.String("database-url", "", "database connection URL or SQLite path")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			if migrate {
				if err := runMigrations(ctx, db, cfg, "up", logger); err != nil {
					_ = db.Close()
					return err
				}
			}

			app, err := newApplication(ctx, cfg, logger, db)
			if err != nil {
				_ = db.Close()
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}
