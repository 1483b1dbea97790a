package desktop

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"
	"github.com/phrazzld/murmur/internal/events"
)

// notificationTitle is shown on every desktop notification
const notificationTitle = "Murmur"

// Notifier raises desktop notifications
type Notifier struct {
	logger  *slog.Logger
	enabled bool
	notify  func(title, message string) error
}

var _ events.EventHandler = (*Notifier)(nil)

// NewNotifier creates a Notifier. When enabled is false, Notify only logs.
func NewNotifier(logger *slog.Logger, enabled bool) *Notifier {
	return &Notifier{
		logger:  logger.With("component", "notifier"),
		enabled: enabled,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Notify shows message in a desktop notification
func (n *Notifier) Notify(message string) error {
	if !n.enabled {
		n.logger.Debug("notifications disabled, skipping", "message", message)
		return nil
	}
	if err := n.notify(notificationTitle, message); err != nil {
		return fmt.Errorf("failed to show notification: %w", err)
	}
	return nil
}

// HandleEvent tells the user when a transcription is going to be retried or
// has been dropped on recovery. Terminal failures are reported through the
// failure callback instead.
func (n *Notifier) HandleEvent(_ context.Context, event *events.LifecycleEvent) error {
	var message string
	switch event.Kind {
	case events.KindRetryScheduled:
		message = fmt.Sprintf("Transcription attempt %d failed, retrying in %s",
			event.Attempt, event.Delay)
	case events.KindDropped:
		message = fmt.Sprintf("Saved recording %s could not be recovered", event.TaskID)
	default:
		return nil
	}
	return n.Notify(message)
}
