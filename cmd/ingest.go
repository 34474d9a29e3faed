package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lecternhq/lectern/internal/app"
	"github.com/lecternhq/lectern/internal/config"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load course documents into the store without serving",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIngest(cmd.Context())
	},
}

var ingestDir string

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "docs folder (overrides docs_dir from config)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if ingestDir != "" {
		cfg.DocsDir = ingestDir
	}

	a, err := app.Setup(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("shutdown error", "error", closeErr)
		}
	}()

	res, err := a.IngestDocs(ctx)
	if err != nil {
		return fmt.Errorf("ingesting documents: %w", err)
	}

	fmt.Printf("Ingested %d courses (%d chunks)\n", res.Courses, res.Chunks)
	if res.Skipped > 0 {
		fmt.Printf("Skipped %d malformed documents\n", res.Skipped)
	}
	if res.Failed > 0 {
		fmt.Printf("Failed to ingest %d documents\n", res.Failed)
	}
	return nil
}
