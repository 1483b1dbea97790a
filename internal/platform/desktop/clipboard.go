package desktop

import (
	"fmt"
	"log/slog"

	"github.com/atotto/clipboard"
)

// Clipboard copies transcribed text to the system clipboard
type Clipboard struct {
	logger      *slog.Logger
	enabled     bool
	unsupported bool
	write       func(text string) error
}

// NewClipboard creates a Clipboard. When enabled is false, Copy is a no-op.
func NewClipboard(logger *slog.Logger, enabled bool) *Clipboard {
	return &Clipboard{
		logger:      logger.With("component", "clipboard"),
		enabled:     enabled,
		unsupported: clipboard.Unsupported,
		write:       clipboard.WriteAll,
	}
}

// Copy replaces the clipboard contents with text
func (c *Clipboard) Copy(text string) error {
	if !c.enabled {
		c.logger.Debug("clipboard disabled, skipping copy", "text_length", len(text))
		return nil
	}
	if c.unsupported {
		return fmt.Errorf("clipboard is not supported on this system")
	}
	if err := c.write(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	c.logger.Debug("copied transcription to clipboard", "text_length", len(text))
	return nil
}
