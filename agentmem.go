// Package agentmem is the long-term memory substrate for a multi-agent
// assistant. It partitions knowledge into named scopes persisted as
// embedded vectors, retrieves context by fusing dense and sparse ranking
// signals, and seeds canonical knowledge idempotently.
package agentmem

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hannesnortje/agentmem/internal/config"
	"github.com/hannesnortje/agentmem/internal/logger"
	"github.com/hannesnortje/agentmem/pkg/embedding"
	"github.com/hannesnortje/agentmem/pkg/memory"
	"github.com/hannesnortje/agentmem/pkg/search"
	"github.com/hannesnortje/agentmem/pkg/seed"
	"github.com/hannesnortje/agentmem/pkg/vectorindex"
	chromemstore "github.com/hannesnortje/agentmem/pkg/vectorindex/chromem"
	"github.com/hannesnortje/agentmem/pkg/vectorindex/qdrant"
	"github.com/hannesnortje/agentmem/pkg/vectorindex/sqlitevec"
)

// Service bundles the memory components behind one constructor so several
// independent memory services can coexist in one process.
type Service struct {
	client   vectorindex.Client
	embedder embedding.Provider
	manager  *memory.CollectionManager
	writer   *memory.Writer
	engine   *search.Engine
	seeder   *seed.Seeder
	logger   zerolog.Logger
	ownedLog *logger.Logger // set by NewFromConfig, closed with the service
	defaultK int
}

// NewFromConfig assembles a Service owning its logger, built from the
// config's logging section (level, console/file writers, redaction).
func NewFromConfig(cfg *config.Config) (*Service, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return nil, err
	}
	s, err := New(cfg, log.Zerolog())
	if err != nil {
		log.Close()
		return nil, err
	}
	s.ownedLog = log
	return s, nil
}

// New assembles a Service from config with an injected logger, for callers
// that already own one. NewFromConfig is the config-driven path.
func New(cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	client, err := buildClient(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	manager, err := memory.NewCollectionManager(memory.ManagerConfig{
		Client:     client,
		VectorSize: embedder.Dimension(),
		Namespace:  cfg.Namespace,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	writer, err := memory.NewWriter(memory.WriterConfig{
		Manager:  manager,
		Embedder: embedder,
		Client:   client,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	engine, err := search.NewEngine(search.EngineConfig{
		Embedder:       embedder,
		Client:         client,
		Logger:         logger,
		CandidateLimit: cfg.Search.CandidateLimit,
	})
	if err != nil {
		return nil, err
	}
	seeder, err := seed.NewSeeder(seed.SeederConfig{
		Writer:  writer,
		Manager: manager,
		Client:  client,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		client:   client,
		embedder: embedder,
		manager:  manager,
		writer:   writer,
		engine:   engine,
		seeder:   seeder,
		logger:   logger,
		defaultK: cfg.Search.DefaultK,
	}, nil
}

func buildClient(cfg *config.Config) (vectorindex.Client, error) {
	switch cfg.Index.Backend {
	case config.BackendQdrant:
		return qdrant.New(qdrant.Config{
			URL:     cfg.Index.QdrantURL,
			APIKey:  cfg.Index.QdrantAPIKey,
			Timeout: time.Duration(cfg.Index.TimeoutSeconds) * time.Second,
		})
	case config.BackendChromem:
		return chromemstore.New(), nil
	case config.BackendSQLite:
		return sqlitevec.Open(cfg.Index.SQLitePath)
	case config.BackendInMemory:
		return vectorindex.NewInMemory(), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
}

func buildEmbedder(cfg *config.Config) (embedding.Provider, error) {
	var provider embedding.Provider
	switch cfg.Embedding.Provider {
	case config.EmbeddingOpenAI:
		provider = embedding.NewOpenAIProvider(cfg.Embedding.APIKey, cfg.Embedding.Model)
	case config.EmbeddingMock:
		provider = embedding.NewMockProvider(cfg.Embedding.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}

	if cfg.Embedding.CacheSize > 0 {
		cached, err := embedding.NewCachedProvider(provider, cfg.Embedding.CacheSize)
		if err != nil {
			return nil, err
		}
		provider = cached
	}
	return provider, nil
}

// Manager returns the collection manager.
func (s *Service) Manager() *memory.CollectionManager { return s.manager }

// Writer returns the event writer.
func (s *Service) Writer() *memory.Writer { return s.writer }

// Engine returns the hybrid search engine.
func (s *Service) Engine() *search.Engine { return s.engine }

// Seeder returns the knowledge seeder.
func (s *Service) Seeder() *seed.Seeder { return s.seeder }

// WriteEvent persists one memory event.
func (s *Service) WriteEvent(ctx context.Context, req memory.WriteRequest) (string, error) {
	id, err := s.writer.WriteEvent(ctx, req)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// InitializeCollections ensures all singleton collections plus one project
// collection per supplied id, reporting partial failures.
func (s *Service) InitializeCollections(ctx context.Context, projectIDs []string) memory.InitReport {
	return s.manager.InitializeAll(ctx, projectIDs)
}

// Search runs a hybrid search in one scope. k <= 0 selects the configured
// default result count.
func (s *Service) Search(ctx context.Context, scope memory.Scope, projectID, query string, k int) ([]search.Result, error) {
	if k <= 0 {
		k = s.defaultK
	}
	collection, err := s.manager.EnsureCollection(ctx, scope, projectID)
	if err != nil {
		return nil, err
	}
	return s.engine.Search(ctx, collection, query, k)
}

// RebuildSparseIndex scrolls a scope's collection and rebuilds the engine's
// sparse snapshot from its stored payloads. This is the explicit caller
// action that refreshes lexical retrieval; writes do not refresh it.
func (s *Service) RebuildSparseIndex(ctx context.Context, scope memory.Scope, projectID string) (int, error) {
	collection, err := s.manager.EnsureCollection(ctx, scope, projectID)
	if err != nil {
		return 0, err
	}

	var docs []search.IndexedDocument
	offset := ""
	for {
		page, err := s.client.Scroll(ctx, collection, vectorindex.ScrollRequest{
			Limit:       256,
			Offset:      offset,
			WithPayload: true,
		})
		if err != nil {
			return 0, &memory.TransportError{Op: "scroll", Collection: collection, Err: err}
		}
		for _, p := range page.Points {
			content, _ := p.Payload["content"].(string)
			if strings.TrimSpace(content) == "" {
				continue
			}
			docs = append(docs, search.IndexedDocument{
				ID:      p.ID,
				Content: content,
				Payload: p.Payload,
			})
		}
		if page.NextOffset == "" {
			break
		}
		offset = page.NextOffset
	}

	if err := s.engine.RebuildSparseSnapshot(docs); err != nil {
		return 0, err
	}
	s.logger.Info().
		Str("collection", collection).
		Int("documents", len(docs)).
		Msg("Sparse index rebuilt")
	return len(docs), nil
}

// SeedGlobalKnowledge performs the idempotent canonical knowledge load.
func (s *Service) SeedGlobalKnowledge(ctx context.Context) (seed.Report, error) {
	return s.seeder.SeedGlobalKnowledge(ctx)
}

// Stats returns per-collection point counts for every collection in this
// service's namespace.
func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, &memory.TransportError{Op: "list_collections", Err: err}
	}
	prefix := s.manager.Namespace() + "_"
	stats := make(map[string]int)
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		info, err := s.client.CollectionInfo(ctx, name)
		if err != nil {
			s.logger.Warn().Err(err).Str("collection", name).Msg("Failed to read collection info")
			continue
		}
		stats[name] = info.PointCount
	}
	return stats, nil
}

// Close releases backend resources for clients that hold any, and the
// service-owned logger when built via NewFromConfig.
func (s *Service) Close() error {
	var err error
	if closer, ok := s.client.(io.Closer); ok {
		err = closer.Close()
	}
	if s.ownedLog != nil {
		if cerr := s.ownedLog.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
