package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lecternhq/lectern/internal/app"
	"github.com/lecternhq/lectern/internal/config"
)

// setupApp loads configuration, builds the application container, and runs
// startup ingestion. The returned cleanup releases all resources.
func setupApp(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	a, err := app.Setup(ctx, cfg, slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("initializing application: %w", err)
	}
	cleanup := func() {
		if err := a.Close(); err != nil {
			slog.Warn("shutdown error", "error", err)
		}
	}

	res, err := a.IngestDocs(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ingesting documents: %w", err)
	}
	slog.Info("startup ingestion complete",
		"courses", res.Courses, "chunks", res.Chunks,
		"skipped", res.Skipped, "failed", res.Failed)

	return a, cleanup, nil
}
