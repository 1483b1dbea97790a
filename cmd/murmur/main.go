// Package main runs murmur, a local service that transcribes recorded audio
// with Gemini and keeps retrying failed transcriptions across restarts.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/phrazzld/murmur/internal/config"
	"github.com/phrazzld/murmur/internal/platform/logger"
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("murmur: %v", err)
	}
}

// run loads configuration, builds the application and serves until a
// shutdown signal arrives
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"log_level", cfg.Server.LogLevel,
		"model", cfg.LLM.ModelName,
		"state_file", cfg.Queue.StateFile,
		"blob_dir", cfg.Queue.BlobDir)

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
