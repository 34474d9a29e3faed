// Package ingest loads a folder of course documents into the semantic store
// at process start. One bad document never aborts the rest: failures are
// counted, logged, and skipped.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lecternhq/lectern/internal/course"
)

// Store is the ingestion-facing surface of the semantic store.
type Store interface {
	UpsertCourse(ctx context.Context, c *course.Course) error
	UpsertChunks(ctx context.Context, chunks []course.Chunk) error
}

// Result summarizes one folder ingestion.
type Result struct {
	Courses int // courses successfully upserted
	Chunks  int // chunks successfully upserted
	Skipped int // malformed documents
	Failed  int // store failures
}

// Ingestor parses documents with its chunker and writes them to the store.
type Ingestor struct {
	store   Store
	chunker *course.Chunker
	logger  *slog.Logger
}

// New creates an ingestor.
func New(store Store, chunker *course.Chunker, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{store: store, chunker: chunker, logger: logger}
}

// IngestFolder ingests every .txt document in dir, in name order.
// Re-ingesting a folder is idempotent: a previously seen course title
// replaces that course's catalog entry and chunks wholesale.
//
// The returned error covers the folder itself (unreadable, missing);
// per-document problems are reflected in Result and the log instead.
func (i *Ingestor) IngestFolder(ctx context.Context, dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading docs folder: %w", err)
	}

	res := &Result{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		path := filepath.Join(dir, entry.Name())
		if err := i.ingestFile(ctx, path, res); err != nil {
			i.logger.Warn("document ingestion failed", "file", entry.Name(), "error", err)
		}
	}

	i.logger.Info("folder ingested",
		"dir", dir,
		"courses", res.Courses,
		"chunks", res.Chunks,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	return res, nil
}

func (i *Ingestor) ingestFile(ctx context.Context, path string, res *Result) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		res.Failed++
		return fmt.Errorf("reading document: %w", err)
	}

	c, chunks, err := course.ParseDocument(string(raw), i.chunker)
	if errors.Is(err, course.ErrMalformedDocument) {
		res.Skipped++
		return err
	}
	if err != nil {
		res.Failed++
		return fmt.Errorf("parsing document: %w", err)
	}

	if err := i.store.UpsertCourse(ctx, c); err != nil {
		res.Failed++
		return fmt.Errorf("upserting course %q: %w", c.Title, err)
	}
	if err := i.store.UpsertChunks(ctx, chunks); err != nil {
		res.Failed++
		return fmt.Errorf("upserting chunks for %q: %w", c.Title, err)
	}

	res.Courses++
	res.Chunks += len(chunks)
	i.logger.Debug("document ingested", "course", c.Title, "chunks", len(chunks))
	return nil
}
