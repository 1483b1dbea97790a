package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/murmur/internal/api"
	"github.com/phrazzld/murmur/internal/config"
	"github.com/phrazzld/murmur/internal/events"
	"github.com/phrazzld/murmur/internal/platform/desktop"
	"github.com/phrazzld/murmur/internal/platform/gemini"
	"github.com/phrazzld/murmur/internal/task"
)

// application holds the wired components of a running murmur process
type application struct {
	config  *config.Config
	logger  *slog.Logger
	emitter *events.InMemoryEventEmitter
	manager *task.Manager
}

// newApplication builds the transcriber, storage, desktop adapters and the
// retry manager. Nothing is started.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	transcriber, err := gemini.NewTranscriber(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transcriber: %w", err)
	}
	return newApplicationWithTranscriber(cfg, logger, transcriber)
}

func newApplicationWithTranscriber(
	cfg *config.Config,
	logger *slog.Logger,
	transcriber task.Transcriber,
) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		emitter: events.NewInMemoryEventEmitter(logger),
	}

	blobs, err := task.NewFileBlobStore(cfg.Queue.BlobDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}
	state := task.NewFileStateStore(cfg.Queue.StateFile)

	clip := desktop.NewClipboard(logger, cfg.Desktop.ClipboardEnabled)
	notifier := desktop.NewNotifier(logger, cfg.Desktop.NotificationsEnabled)
	app.emitter.RegisterHandler(notifier)

	app.manager, err = task.NewManager(
		managerConfig(cfg.Queue),
		transcriber,
		desktop.NewCallbacks(logger, clip, notifier),
		blobs,
		state,
		logger,
		task.WithEventEmitter(app.emitter),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry manager: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

func managerConfig(q config.QueueConfig) task.Config {
	return task.Config{
		MaxRetryAttempts: q.MaxRetryAttempts,
		BaseDelay:        q.BaseDelay,
		QueueSize:        q.QueueSize,
		PollTimeout:      q.PollTimeout,
		JoinTimeout:      q.JoinTimeout,
		RetainBlobs:      q.RetainBlobs,
	}
}

// Run starts the retry manager and serves the control API until ctx is
// cancelled or a shutdown signal arrives
func (app *application) Run(ctx context.Context) error {
	if err := app.manager.Start(); err != nil {
		return fmt.Errorf("failed to start retry manager: %w", err)
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// setupRouter builds the control API handler
func (app *application) setupRouter() http.Handler {
	handler := api.NewTaskHandler(
		app.manager,
		app.config.Audio.SampleRate,
		int64(app.config.LLM.MaxAudioBytes),
	)
	return api.NewRouter(handler, app.logger)
}

// cleanup stops the retry manager, which persists the final state
func (app *application) cleanup() {
	app.manager.Stop()
	app.logger.Info("application shutdown completed")
}
