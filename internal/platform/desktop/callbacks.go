package desktop

import (
	"log/slog"

	"github.com/phrazzld/murmur/internal/task"
)

// NewCallbacks wires task outcomes to the desktop: text goes to the
// clipboard, failures raise a notification. Adapter errors are logged.
func NewCallbacks(logger *slog.Logger, clip *Clipboard, notifier *Notifier) task.Callbacks {
	logger = logger.With("component", "desktop_callbacks")

	return task.Callbacks{
		OnSuccess: func(taskID, text string) {
			logger.Info("transcription delivered",
				"task_id", taskID,
				"text_length", len(text))
			if err := clip.Copy(text); err != nil {
				logger.Warn("failed to copy transcription",
					"task_id", taskID,
					"error", err)
				if nerr := notifier.Notify("Transcription ready but copying it failed"); nerr != nil {
					logger.Warn("failed to notify", "task_id", taskID, "error", nerr)
				}
			}
		},
		OnFailure: func(taskID, reason string) {
			logger.Error("transcription failed",
				"task_id", taskID,
				"reason", reason)
			if err := notifier.Notify("Transcription failed: " + reason); err != nil {
				logger.Warn("failed to notify", "task_id", taskID, "error", err)
			}
		},
	}
}
