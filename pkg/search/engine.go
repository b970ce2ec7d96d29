package search

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hannesnortje/agentmem/pkg/embedding"
	"github.com/hannesnortje/agentmem/pkg/vectorindex"
)

// DefaultCandidateLimit is the per-source top-k each retrieval path fetches
// before fusion. It is independent of the caller's final result count.
const DefaultCandidateLimit = 20

// IndexedDocument is one entry of the sparse snapshot.
type IndexedDocument struct {
	ID      string
	Content string
	Payload map[string]interface{}
}

// Result is one hybrid search hit resolved to its stored payload.
type Result struct {
	ID      string
	Score   float64 // fused RRF score
	Payload map[string]interface{}
}

// Engine fuses dense (vector index) and sparse (lexical) retrieval with
// reciprocal rank fusion. The sparse snapshot is rebuilt by explicit caller
// action, not automatically on write.
type Engine struct {
	embedder       embedding.Provider
	client         vectorindex.Client
	sparse         *SparseRetriever
	logger         zerolog.Logger
	candidateLimit int

	mu       sync.RWMutex
	payloads map[string]map[string]interface{} // sparse snapshot payloads by id
}

// EngineConfig holds hybrid search engine configuration.
type EngineConfig struct {
	Embedder       embedding.Provider
	Client         vectorindex.Client
	Logger         zerolog.Logger
	CandidateLimit int // defaults to DefaultCandidateLimit
}

// NewEngine creates a hybrid search engine with an empty sparse snapshot.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Embedder == nil {
		return nil, errors.New("embedding provider is required")
	}
	if cfg.Client == nil {
		return nil, errors.New("vector index client is required")
	}
	limit := cfg.CandidateLimit
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	return &Engine{
		embedder:       cfg.Embedder,
		client:         cfg.Client,
		sparse:         NewSparseRetriever(),
		logger:         cfg.Logger,
		candidateLimit: limit,
		payloads:       make(map[string]map[string]interface{}),
	}, nil
}

// RebuildSparseSnapshot replaces the lexical index with the supplied
// documents. Safe to call while searches are in flight.
func (e *Engine) RebuildSparseSnapshot(docs []IndexedDocument) error {
	contents := make([]string, len(docs))
	ids := make([]string, len(docs))
	payloads := make(map[string]map[string]interface{}, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
		ids[i] = d.ID
		payloads[d.ID] = d.Payload
	}
	if err := e.sparse.Build(contents, ids); err != nil {
		return err
	}
	e.mu.Lock()
	e.payloads = payloads
	e.mu.Unlock()

	e.logger.Debug().Int("documents", len(docs)).Msg("Sparse snapshot rebuilt")
	return nil
}

// DenseSearch embeds the query and returns hit ids in the index's ranked
// order.
func (e *Engine) DenseSearch(ctx context.Context, collection, query string, k int) ([]string, error) {
	hits, err := e.denseHits(ctx, collection, query, k)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids, nil
}

func (e *Engine) denseHits(ctx context.Context, collection, query string, k int) ([]vectorindex.ScoredPoint, error) {
	vec, err := e.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.client.Search(ctx, collection, vec, k)
}

// SparseSearch delegates to the current sparse snapshot. Empty when no
// snapshot has been built.
func (e *Engine) SparseSearch(query string, k int) []string {
	hits := e.sparse.Search(query, k)
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

// Search runs both retrieval paths with the engine's per-source candidate
// limit, fuses their rankings, and returns the top k fused results resolved
// to their stored payloads.
func (e *Engine) Search(ctx context.Context, collection, query string, k int) ([]Result, error) {
	var (
		wg        sync.WaitGroup
		denseHits []vectorindex.ScoredPoint
		denseErr  error
		sparseIDs []string
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		denseHits, denseErr = e.denseHits(ctx, collection, query, e.candidateLimit)
	}()
	go func() {
		defer wg.Done()
		sparseIDs = e.SparseSearch(query, e.candidateLimit)
	}()
	wg.Wait()

	if denseErr != nil {
		return nil, denseErr
	}

	denseIDs := make([]string, len(denseHits))
	densePayloads := make(map[string]map[string]interface{}, len(denseHits))
	for i, h := range denseHits {
		denseIDs[i] = h.ID
		densePayloads[h.ID] = h.Payload
	}

	fused := ReciprocalRankFusion(k, denseIDs, sparseIDs)

	e.mu.RLock()
	defer e.mu.RUnlock()

	results := make([]Result, len(fused))
	for i, f := range fused {
		payload := densePayloads[f.ID]
		if payload == nil {
			payload = e.payloads[f.ID]
		}
		results[i] = Result{ID: f.ID, Score: f.Score, Payload: payload}
	}

	e.logger.Debug().
		Str("collection", collection).
		Int("dense", len(denseIDs)).
		Int("sparse", len(sparseIDs)).
		Int("fused", len(results)).
		Msg("Hybrid search completed")
	return results, nil
}
