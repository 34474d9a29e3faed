package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"github.com/philippgille/chromem-go"
	"golang.org/x/time/rate"

	"github.com/lecternhq/lectern/db"
	"github.com/lecternhq/lectern/internal/chat"
	"github.com/lecternhq/lectern/internal/config"
	"github.com/lecternhq/lectern/internal/course"
	"github.com/lecternhq/lectern/internal/ingest"
	"github.com/lecternhq/lectern/internal/session"
	"github.com/lecternhq/lectern/internal/store"
	"github.com/lecternhq/lectern/internal/tools"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup. Call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	catalog, content, err := provideIndexes(ctx, a)
	if err != nil {
		return nil, err
	}

	a.Store = store.New(embedder, catalog, content, cfg.ResolveFloor, logger)

	chunker := course.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	a.Ingestor = ingest.New(a.Store, chunker, logger)

	registry, toolRefs, err := provideTools(a)
	if err != nil {
		return nil, err
	}
	a.Registry = registry

	a.Sessions = session.NewManager(cfg.MaxHistory, logger)

	model := chat.NewGenkitModel(g, cfg.FullModelName(), cfg.Temperature, cfg.MaxTokens)
	a.Orchestrator = chat.New(model, registry, toolRefs, a.Sessions, chat.Config{
		MaxToolRounds: cfg.MaxToolRounds,
		Limiter:       rate.NewLimiter(10, 30),
	}, logger)

	return a, nil
}

// provideGenkit initializes Genkit with the configured AI provider plugin.
// Supports gemini (default), ollama, and openai providers.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderGemini
	}

	var g *genkit.Genkit

	switch provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery)
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized genkit with openai provider", "model", cfg.ModelName)

	default:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the AI provider plugin.
// Each provider registers embedders differently:
//   - gemini: GoogleAIEmbedder(g, modelName)
//   - ollama: registered in provideGenkit, keyed by server address
//   - openai: auto-registered in Init(), looked up by model name
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideIndexes creates the catalog and content indexes for the configured
// backend. The postgres backend also runs migrations and owns a connection
// pool registered for cleanup.
func provideIndexes(ctx context.Context, a *App) (catalog, content store.Index, err error) {
	cfg := a.Config

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := provideDBPool(ctx, cfg, a.Logger)
		if err != nil {
			return nil, nil, err
		}
		a.DBPool = pool
		a.cleanups = append(a.cleanups, pool.Close)

		catalog, err := store.NewPostgresIndex(pool, store.CatalogTable)
		if err != nil {
			return nil, nil, err
		}
		content, err := store.NewPostgresIndex(pool, store.ContentTable)
		if err != nil {
			return nil, nil, err
		}
		return catalog, content, nil

	default: // chromem
		var cdb *chromem.DB
		if cfg.ChromemPath != "" {
			cdb, err = chromem.NewPersistentDB(cfg.ChromemPath, false)
			if err != nil {
				return nil, nil, fmt.Errorf("opening chromem store at %q: %w", cfg.ChromemPath, err)
			}
		} else {
			cdb = chromem.NewDB()
		}

		embedFn := store.NewEmbeddingFunc(a.Embedder)
		catalog, err := store.NewChromemIndex(cdb, store.CatalogCollection, embedFn)
		if err != nil {
			return nil, nil, err
		}
		content, err := store.NewChromemIndex(cdb, store.ContentCollection, embedFn)
		if err != nil {
			return nil, nil, err
		}
		return catalog, content, nil
	}
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool
// with pgvector types registered on every connection.
func provideDBPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideTools builds the tool registry and registers every tool's schema
// with Genkit so the model can call them.
func provideTools(a *App) (*tools.Registry, []ai.ToolRef, error) {
	registry := tools.NewRegistry(a.Logger)

	search := tools.NewSearchTool(a.Store, a.Config.TopK, a.Logger)
	if err := registry.Register(search); err != nil {
		return nil, nil, fmt.Errorf("registering search tool: %w", err)
	}

	outline := tools.NewOutlineTool(a.Store)
	if err := registry.Register(outline); err != nil {
		return nil, nil, fmt.Errorf("registering outline tool: %w", err)
	}

	refs := registry.DefineAll(a.Genkit)
	a.Logger.Info("tools registered", "count", len(refs))
	return registry, refs, nil
}
