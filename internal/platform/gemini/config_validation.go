package gemini

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/murmur/internal/config"
)

// validateConfig checks the settings the transcriber cannot work without.
// Optional tuning values that are out of range are logged and defaulted.
func validateConfig(logger *slog.Logger, cfg *config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	if cfg.RequestTimeout <= 0 {
		logger.Warn("invalid request timeout, using default",
			"value", cfg.RequestTimeout,
			"default", defaultRequestTimeout)
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxAudioBytes <= 0 {
		logger.Warn("invalid max audio size, using default",
			"value", cfg.MaxAudioBytes,
			"default", defaultMaxAudioBytes)
		cfg.MaxAudioBytes = defaultMaxAudioBytes
	}
	if cfg.ThinkingBudget < 0 {
		logger.Warn("invalid thinking budget, disabling thinking",
			"value", cfg.ThinkingBudget)
		cfg.ThinkingBudget = 0
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	return nil
}
