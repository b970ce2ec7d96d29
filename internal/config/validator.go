package config

import (
	"fmt"
	"strings"
)

// Validate checks a config for consistency before any component is built.
func Validate(cfg *Config) error {
	if cfg.Namespace == "" {
		return fmt.Errorf("namespace cannot be empty")
	}

	switch cfg.Index.Backend {
	case BackendQdrant:
		if cfg.Index.QdrantURL == "" {
			return fmt.Errorf("qdrant backend requires index.qdrant_url")
		}
	case BackendSQLite:
		if cfg.Index.SQLitePath == "" {
			return fmt.Errorf("sqlite backend requires index.sqlite_path")
		}
	case BackendChromem, BackendInMemory:
		// embedded backends need no endpoint
	default:
		return fmt.Errorf("unknown index backend %q (expected qdrant, chromem, sqlite, or inmemory)", cfg.Index.Backend)
	}

	if cfg.Index.TimeoutSeconds < 0 {
		return fmt.Errorf("index.timeout_seconds must be >= 0")
	}

	switch cfg.Embedding.Provider {
	case EmbeddingOpenAI:
		if cfg.Embedding.APIKey == "" {
			return fmt.Errorf("openai embedding provider requires embedding.api_key")
		}
		if !strings.HasPrefix(cfg.Embedding.APIKey, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
		if cfg.Embedding.Model == "" {
			return fmt.Errorf("openai embedding provider requires embedding.model")
		}
	case EmbeddingMock:
		if cfg.Embedding.Dimension <= 0 {
			return fmt.Errorf("mock embedding provider requires a positive embedding.dimension")
		}
	default:
		return fmt.Errorf("unknown embedding provider %q (expected openai or mock)", cfg.Embedding.Provider)
	}

	if cfg.Search.CandidateLimit <= 0 {
		return fmt.Errorf("search.candidate_limit must be positive")
	}
	if cfg.Search.DefaultK <= 0 {
		return fmt.Errorf("search.default_k must be positive")
	}

	return nil
}
