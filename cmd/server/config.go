package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"
	"github.com/studybuddy/studybuddy-api/internal/config"
)

// loadAppConfig loads the configuration; explicitly set flags win over
// every other source.
func loadAppConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Debug("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver,
		"llm_enabled", cfg.LLM.Enabled())
	return cfg, nil
}
