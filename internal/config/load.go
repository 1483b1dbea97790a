package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "MURMUR"
	configFileEnv  = "MURMUR_CONFIG"
	configFileName = "murmur"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path := os.Getenv(configFileEnv); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/murmur")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults must be bound explicitly for Unmarshal to see them.
	// GEMINI_API_KEY is honored for compatibility with existing setups.
	if err := v.BindEnv("llm.gemini_api_key", "MURMUR_LLM_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}
	if err := v.BindEnv("llm.base_url", "MURMUR_LLM_BASE_URL", "GEMINI_BASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8765)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("queue.max_retry_attempts", 8)
	v.SetDefault("queue.base_delay", "30s")
	v.SetDefault("queue.queue_size", 100)
	v.SetDefault("queue.poll_timeout", "1s")
	v.SetDefault("queue.join_timeout", "2s")
	v.SetDefault("queue.state_file", "logs/retry_queue.json")
	v.SetDefault("queue.blob_dir", "logs/retry_audio")
	v.SetDefault("queue.retain_blobs", false)

	v.SetDefault("llm.model_name", "gemini-2.5-flash")
	v.SetDefault("llm.prompt_template_path", "")
	v.SetDefault("llm.language", "zh")
	v.SetDefault("llm.request_timeout", "30s")
	v.SetDefault("llm.thinking_budget", 0)
	v.SetDefault("llm.max_audio_bytes", 20*1024*1024)

	v.SetDefault("audio.sample_rate", 16000)

	v.SetDefault("desktop.clipboard_enabled", true)
	v.SetDefault("desktop.notifications_enabled", true)
}
