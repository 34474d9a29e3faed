package config

import "fmt"

// Validate performs range and consistency checks on the configuration.
// It is called by Load so a bad configuration fails at startup.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q (must be one of: gemini, ollama, openai)", ErrInvalidProvider, c.Provider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidEmbedderModel)
	}
	if c.Provider == ProviderOllama && c.OllamaHost == "" {
		return fmt.Errorf("%w: ollama_host is required when provider is ollama", ErrInvalidProvider)
	}

	if c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: %d (must be in [%d, %d])", ErrInvalidChunkSize, c.ChunkSize, MinChunkSize, MaxChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: %d (must be in [0, chunk_size))", ErrInvalidChunkOverlap, c.ChunkOverlap)
	}

	if c.ResolveFloor < 0 || c.ResolveFloor > 1 {
		return fmt.Errorf("%w: %v (must be in [0, 1])", ErrInvalidResolveFloor, c.ResolveFloor)
	}
	if c.TopK < 1 || c.TopK > MaxTopK {
		return fmt.Errorf("%w: %d (must be in [1, %d])", ErrInvalidTopK, c.TopK, MaxTopK)
	}

	if c.MaxToolRounds < 1 || c.MaxToolRounds > MaxToolRoundsCap {
		return fmt.Errorf("%w: %d (must be in [1, %d])", ErrInvalidMaxRounds, c.MaxToolRounds, MaxToolRoundsCap)
	}
	if c.MaxHistory < 1 || c.MaxHistory > MaxHistoryCap {
		return fmt.Errorf("%w: %d (must be in [1, %d])", ErrInvalidMaxHistory, c.MaxHistory, MaxHistoryCap)
	}

	switch c.StoreBackend {
	case BackendChromem:
	case BackendPostgres:
		if c.PostgresHost == "" || c.PostgresDBName == "" || c.PostgresUser == "" {
			return fmt.Errorf("%w: host, user, and db name are required", ErrInvalidPostgres)
		}
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("%w: port %d out of range", ErrInvalidPostgres, c.PostgresPort)
		}
	default:
		return fmt.Errorf("%w: %q (must be one of: chromem, postgres)", ErrInvalidStoreBackend, c.StoreBackend)
	}

	return nil
}
