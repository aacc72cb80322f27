package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studybuddy/studybuddy-api/internal/config"
	"github.com/studybuddy/studybuddy-api/internal/generation"
)

// validateConfig checks the settings the generator cannot run without and
// warns about ones it can repair.
func validateConfig(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.MaxRetries < 0 {
		logger.WarnContext(ctx, "Invalid MaxRetries value, using default",
			"value", cfg.MaxRetries, "default", defaultMaxRetries)
	}

	if cfg.RetryDelaySeconds < 1 {
		logger.WarnContext(ctx, "Invalid RetryDelaySeconds value, using default",
			"value", cfg.RetryDelaySeconds, "default", defaultRetryDelaySeconds)
	}

	return nil
}
