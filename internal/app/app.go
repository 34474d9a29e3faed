// Package app provides application initialization and dependency wiring.
//
// App is the container that owns all long-lived components: the Genkit
// runtime, the embedder, the semantic store with its backing indexes, the
// tool registry, session manager, and query orchestrator. Setup builds
// them in dependency order; Close releases them in reverse.
package app

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lecternhq/lectern/internal/chat"
	"github.com/lecternhq/lectern/internal/config"
	"github.com/lecternhq/lectern/internal/ingest"
	"github.com/lecternhq/lectern/internal/session"
	"github.com/lecternhq/lectern/internal/store"
	"github.com/lecternhq/lectern/internal/tools"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	// DBPool is nil when the chromem backend is active.
	DBPool *pgxpool.Pool

	Store        *store.Store
	Registry     *tools.Registry
	Sessions     *session.Manager
	Orchestrator *chat.Orchestrator
	Ingestor     *ingest.Ingestor

	cleanups []func()
}

// Close releases all resources in reverse construction order.
func (a *App) Close() error {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
	return nil
}

// IngestDocs loads every course document from the configured docs folder
// into the store. Called once at startup; re-ingestion of an unchanged
// folder is idempotent because chunk IDs are derived from course title
// and chunk index.
func (a *App) IngestDocs(ctx context.Context) (*ingest.Result, error) {
	return a.Ingestor.IngestFolder(ctx, a.Config.DocsDir)
}
