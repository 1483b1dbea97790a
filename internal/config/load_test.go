package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// managedEnv lists every variable Load reads so that values from the
// developer's shell cannot leak into a test case
var managedEnv = []string{
	"MURMUR_CONFIG",
	"MURMUR_SERVER_HOST",
	"MURMUR_SERVER_PORT",
	"MURMUR_SERVER_LOG_LEVEL",
	"MURMUR_QUEUE_MAX_RETRY_ATTEMPTS",
	"MURMUR_QUEUE_BASE_DELAY",
	"MURMUR_QUEUE_STATE_FILE",
	"MURMUR_QUEUE_BLOB_DIR",
	"MURMUR_QUEUE_RETAIN_BLOBS",
	"MURMUR_LLM_GEMINI_API_KEY",
	"MURMUR_LLM_MODEL_NAME",
	"MURMUR_LLM_BASE_URL",
	"MURMUR_AUDIO_SAMPLE_RATE",
	"GEMINI_API_KEY",
	"GEMINI_BASE_URL",
}

// setupEnv clears the managed variables, then applies envVars for the
// duration of the test
func setupEnv(t *testing.T, envVars map[string]string) {
	t.Helper()

	for _, name := range managedEnv {
		t.Setenv(name, "")
	}
	for name, value := range envVars {
		t.Setenv(name, value)
	}
}

// TestLoadDefaults verifies the defaults applied when only the API key is set.
func TestLoadDefaults(t *testing.T) {
	setupEnv(t, map[string]string{
		"MURMUR_LLM_GEMINI_API_KEY": "test-api-key",
	})

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg, "Load() should return a non-nil config")

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8765, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Server.LogLevel)

	assert.Equal(t, 8, cfg.Queue.MaxRetryAttempts)
	assert.Equal(t, 30*time.Second, cfg.Queue.BaseDelay)
	assert.Equal(t, 100, cfg.Queue.QueueSize)
	assert.Equal(t, time.Second, cfg.Queue.PollTimeout)
	assert.Equal(t, 2*time.Second, cfg.Queue.JoinTimeout)
	assert.Equal(t, "logs/retry_queue.json", cfg.Queue.StateFile)
	assert.False(t, cfg.Queue.RetainBlobs)

	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.ModelName)
	assert.Equal(t, "zh", cfg.LLM.Language)
	assert.Equal(t, 30*time.Second, cfg.LLM.RequestTimeout)
	assert.Equal(t, 16000, cfg.Audio.SampleRate)

	assert.True(t, cfg.Desktop.ClipboardEnabled)
	assert.True(t, cfg.Desktop.NotificationsEnabled)
}

// TestLoadFromEnv verifies that the Load function correctly reads values from environment variables.
func TestLoadFromEnv(t *testing.T) {
	setupEnv(t, map[string]string{
		"MURMUR_SERVER_PORT":              "9090",
		"MURMUR_SERVER_LOG_LEVEL":         "debug",
		"MURMUR_QUEUE_MAX_RETRY_ATTEMPTS": "3",
		"MURMUR_QUEUE_BASE_DELAY":         "1500ms",
		"MURMUR_QUEUE_RETAIN_BLOBS":       "true",
		"MURMUR_LLM_GEMINI_API_KEY":       "test-api-key",
		"MURMUR_LLM_MODEL_NAME":           "gemini-2.5-flash-lite",
	})

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with valid environment variables")
	require.NotNil(t, cfg, "Load() should return a non-nil config")
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 3, cfg.Queue.MaxRetryAttempts)
	assert.Equal(t, 1500*time.Millisecond, cfg.Queue.BaseDelay)
	assert.True(t, cfg.Queue.RetainBlobs)
	assert.Equal(t, "test-api-key", cfg.LLM.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.LLM.ModelName)
}

// TestLoadLegacyAPIKey verifies that GEMINI_API_KEY is honored.
func TestLoadLegacyAPIKey(t *testing.T) {
	setupEnv(t, map[string]string{
		"GEMINI_API_KEY": "legacy-key",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.LLM.GeminiAPIKey)
}

// TestLoadFromFile verifies file values and their precedence below the environment.
func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murmur.yaml")
	content := `
server:
  port: 7000
  log_level: warn
queue:
  base_delay: 10s
  state_file: /var/lib/murmur/state.json
llm:
  gemini_api_key: file-key
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	setupEnv(t, map[string]string{
		"MURMUR_CONFIG":      path,
		"MURMUR_SERVER_PORT": "7001",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port, "environment overrides the file")
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Queue.BaseDelay)
	assert.Equal(t, "/var/lib/murmur/state.json", cfg.Queue.StateFile)
	assert.Equal(t, "file-key", cfg.LLM.GeminiAPIKey)
}

// TestLoadMissingConfigFile verifies that an explicitly named file must exist.
func TestLoadMissingConfigFile(t *testing.T) {
	setupEnv(t, map[string]string{
		"MURMUR_CONFIG":             filepath.Join(t.TempDir(), "absent.yaml"),
		"MURMUR_LLM_GEMINI_API_KEY": "test-api-key",
	})

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

// TestLoadValidationErrors verifies that the Load function correctly validates the configuration.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name           string
		envVars        map[string]string
		errorSubstring string
	}{
		{
			name: "Missing API key",
			envVars: map[string]string{
				"MURMUR_SERVER_LOG_LEVEL": "debug",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Invalid port number",
			envVars: map[string]string{
				"MURMUR_SERVER_PORT":        "999999",
				"MURMUR_LLM_GEMINI_API_KEY": "test-api-key",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Invalid log level",
			envVars: map[string]string{
				"MURMUR_SERVER_LOG_LEVEL":   "invalid-level",
				"MURMUR_LLM_GEMINI_API_KEY": "test-api-key",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Zero retry attempts",
			envVars: map[string]string{
				"MURMUR_QUEUE_MAX_RETRY_ATTEMPTS": "0",
				"MURMUR_LLM_GEMINI_API_KEY":       "test-api-key",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Negative base delay",
			envVars: map[string]string{
				"MURMUR_QUEUE_BASE_DELAY":   "-5s",
				"MURMUR_LLM_GEMINI_API_KEY": "test-api-key",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Unsupported sample rate",
			envVars: map[string]string{
				"MURMUR_AUDIO_SAMPLE_RATE":  "1000",
				"MURMUR_LLM_GEMINI_API_KEY": "test-api-key",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Malformed base URL",
			envVars: map[string]string{
				"MURMUR_LLM_BASE_URL":       "not a url",
				"MURMUR_LLM_GEMINI_API_KEY": "test-api-key",
			},
			errorSubstring: "validation failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setupEnv(t, tc.envVars)

			cfg, err := Load()

			require.Error(t, err, "Load() should return an error with invalid configuration")
			assert.Contains(t, err.Error(), tc.errorSubstring, "Error message should contain expected substring")
			assert.Nil(t, cfg, "Config should be nil when an error occurs")
		})
	}
}
