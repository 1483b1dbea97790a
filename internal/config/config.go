package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Queue   QueueConfig   `mapstructure:"queue" validate:"required"`
	LLM     LLMConfig     `mapstructure:"llm" validate:"required"`
	Audio   AudioConfig   `mapstructure:"audio" validate:"required"`
	Desktop DesktopConfig `mapstructure:"desktop"`
}

// ServerConfig contains the control API and logging settings.
type ServerConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// QueueConfig contains the retry queue settings.
type QueueConfig struct {
	MaxRetryAttempts int           `mapstructure:"max_retry_attempts" validate:"gte=1,lte=20"`
	BaseDelay        time.Duration `mapstructure:"base_delay" validate:"gt=0s"`
	QueueSize        int           `mapstructure:"queue_size" validate:"gte=1"`
	PollTimeout      time.Duration `mapstructure:"poll_timeout" validate:"gt=0s"`
	JoinTimeout      time.Duration `mapstructure:"join_timeout" validate:"gt=0s"`
	StateFile        string        `mapstructure:"state_file" validate:"required"`
	BlobDir          string        `mapstructure:"blob_dir" validate:"required"`
	// RetainBlobs keeps audio of finished tasks on disk for debugging
	RetainBlobs      bool          `mapstructure:"retain_blobs"`
}

// LLMConfig contains the transcription backend settings.
type LLMConfig struct {
	GeminiAPIKey       string        `mapstructure:"gemini_api_key" validate:"required"`
	ModelName          string        `mapstructure:"model_name" validate:"required"`
	// BaseURL overrides the Gemini endpoint, e.g. for a proxy
	BaseURL            string        `mapstructure:"base_url" validate:"omitempty,url"`
	PromptTemplatePath string        `mapstructure:"prompt_template_path"`
	Language           string        `mapstructure:"language" validate:"required"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout" validate:"gt=0s"`
	ThinkingBudget     int           `mapstructure:"thinking_budget" validate:"gte=0"`
	MaxAudioBytes      int           `mapstructure:"max_audio_bytes" validate:"gt=0"`
}

// AudioConfig contains the recording format expected from callers.
type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate" validate:"required,gte=8000,lte=48000"`
}

// DesktopConfig toggles the desktop result adapters.
type DesktopConfig struct {
	ClipboardEnabled     bool `mapstructure:"clipboard_enabled"`
	NotificationsEnabled bool `mapstructure:"notifications_enabled"`
}

// Addr returns the host:port the control API listens on.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
