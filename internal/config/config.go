// Package config loads and validates the memory service configuration.
package config

// Backend names for the vector index.
const (
	BackendQdrant   = "qdrant"
	BackendChromem  = "chromem"
	BackendSQLite   = "sqlite"
	BackendInMemory = "inmemory"
)

// Embedding provider names.
const (
	EmbeddingOpenAI = "openai"
	EmbeddingMock   = "mock"
)

// Config is the root memory service configuration.
type Config struct {
	// Namespace prefixes every collection name.
	Namespace string `json:"namespace" mapstructure:"namespace"`

	Index     IndexConfig     `json:"index" mapstructure:"index"`
	Embedding EmbeddingConfig `json:"embedding" mapstructure:"embedding"`
	Search    SearchConfig    `json:"search" mapstructure:"search"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Backend        string `json:"backend" mapstructure:"backend"` // qdrant, chromem, sqlite, inmemory
	QdrantURL      string `json:"qdrant_url" mapstructure:"qdrant_url"`
	QdrantAPIKey   string `json:"qdrant_api_key" mapstructure:"qdrant_api_key"`
	SQLitePath     string `json:"sqlite_path" mapstructure:"sqlite_path"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider  string `json:"provider" mapstructure:"provider"` // openai, mock
	Model     string `json:"model" mapstructure:"model"`
	APIKey    string `json:"api_key" mapstructure:"api_key"`
	Dimension int    `json:"dimension" mapstructure:"dimension"` // only used by the mock provider
	CacheSize int64  `json:"cache_size" mapstructure:"cache_size"`
}

// SearchConfig configures the hybrid search engine.
type SearchConfig struct {
	// CandidateLimit is the per-source top-k each retrieval path fetches
	// before fusion. Independent of the final result count.
	CandidateLimit int `json:"candidate_limit" mapstructure:"candidate_limit"`
	DefaultK       int `json:"default_k" mapstructure:"default_k"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config suitable for local development: embedded
// chromem index, mock embeddings, console logging.
func DefaultConfig() *Config {
	return &Config{
		Namespace: "agentmem",
		Index: IndexConfig{
			Backend:        BackendChromem,
			QdrantURL:      "http://localhost:6333",
			TimeoutSeconds: 30,
		},
		Embedding: EmbeddingConfig{
			Provider:  EmbeddingMock,
			Model:     "text-embedding-3-small",
			Dimension: 384,
			CacheSize: 4096,
		},
		Search: SearchConfig{
			CandidateLimit: 20,
			DefaultK:       5,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			Redaction: true,
		},
	}
}
