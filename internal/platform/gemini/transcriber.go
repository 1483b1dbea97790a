package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/murmur/internal/config"
	"github.com/phrazzld/murmur/internal/task"
	"google.golang.org/genai"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxAudioBytes  = 20 * 1024 * 1024
	defaultLanguage       = "zh"

	wavMIMEType = "audio/wav"
)

// contentGenerator is the slice of the genai Models service the transcriber
// needs. It is satisfied by *genai.Models and by MockModels.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Transcriber turns WAV payloads into text with a Gemini model
type Transcriber struct {
	logger *slog.Logger
	config config.LLMConfig
	prompt string
	models contentGenerator
}

var _ task.Transcriber = (*Transcriber)(nil)

// NewTranscriber creates a Transcriber backed by the Gemini API.
// It renders the prompt template once and fails with ErrInvalidConfig when
// the configuration is unusable.
func NewTranscriber(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
) (*Transcriber, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}
	if err := validateConfig(logger, &cfg); err != nil {
		return nil, err
	}

	prompt, err := loadPrompt(cfg.PromptTemplatePath, cfg.Language)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", ErrInvalidConfig, err)
	}

	logger.Info("gemini transcriber initialized",
		"model", cfg.ModelName,
		"language", cfg.Language,
		"custom_base_url", cfg.BaseURL != "",
		"thinking_budget", cfg.ThinkingBudget)

	return newTranscriber(logger, cfg, prompt, client.Models), nil
}

func newTranscriber(
	logger *slog.Logger,
	cfg config.LLMConfig,
	prompt string,
	models contentGenerator,
) *Transcriber {
	return &Transcriber{
		logger: logger.With("component", "gemini_transcriber"),
		config: cfg,
		prompt: prompt,
		models: models,
	}
}

// Transcribe sends the WAV payload to Gemini and returns the trimmed text.
// Errors that retrying cannot fix are wrapped with task.Permanent.
func (t *Transcriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if len(wav) == 0 {
		return "", task.Permanent(ErrEmptyAudio)
	}
	if len(wav) > t.config.MaxAudioBytes {
		return "", task.Permanent(fmt.Errorf("%w: %d bytes, limit %d",
			ErrAudioTooLarge, len(wav), t.config.MaxAudioBytes))
	}

	ctx, cancel := context.WithTimeout(ctx, t.config.RequestTimeout)
	defer cancel()

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: t.prompt},
			{InlineData: &genai.Blob{Data: wav, MIMEType: wavMIMEType}},
		},
	}}

	start := time.Now()
	resp, err := t.models.GenerateContent(ctx, t.config.ModelName, contents, t.generationConfig())
	if err != nil {
		return "", t.classifyError(err)
	}

	text, err := extractText(resp)
	if err != nil {
		t.logger.Warn("unusable gemini response",
			"error", err,
			"permanent", task.IsPermanent(err))
		return "", err
	}

	t.logger.Debug("transcription completed",
		"audio_bytes", len(wav),
		"text_length", len(text),
		"duration_ms", time.Since(start).Milliseconds())
	return text, nil
}

func (t *Transcriber) generationConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if t.config.ThinkingBudget > 0 {
		budget := int32(t.config.ThinkingBudget)
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	}
	return cfg
}

// classifyError maps API failures onto retryable and permanent errors.
// Rejected requests and credential problems will not succeed on retry;
// rate limits, server errors and timeouts may.
func (t *Transcriber) classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		t.logger.Warn("gemini API error",
			"code", apiErr.Code,
			"status", apiErr.Status)
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusUnauthorized,
			http.StatusForbidden, http.StatusNotFound:
			return task.Permanent(fmt.Errorf("gemini rejected the request: %w", err))
		}
		return fmt.Errorf("%w: %w", ErrTransientFailure, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		t.logger.Warn("gemini request timed out", "timeout", t.config.RequestTimeout)
		return fmt.Errorf("%w: request timed out: %w", ErrTransientFailure, err)
	}
	return fmt.Errorf("%w: %w", ErrTransientFailure, err)
}

// extractText joins the text parts of the first candidate
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", task.Permanent(fmt.Errorf("%w: prompt blocked: %s",
				ErrContentBlocked, resp.PromptFeedback.BlockReason))
		}
		return "", fmt.Errorf("%w: no candidates", ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", task.Permanent(fmt.Errorf("%w: finish reason %s",
			ErrContentBlocked, candidate.FinishReason))
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: candidate has no content", ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}
