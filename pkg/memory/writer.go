package memory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hannesnortje/agentmem/pkg/embedding"
	"github.com/hannesnortje/agentmem/pkg/vectorindex"
)

// Writer persists validated memory events. Every write produces a new,
// independently addressable event; nothing is ever merged or overwritten
// unless the caller reuses an id deliberately (seeding does).
type Writer struct {
	manager  *CollectionManager
	embedder embedding.Provider
	client   vectorindex.Client
	logger   zerolog.Logger
}

// WriterConfig holds writer configuration.
type WriterConfig struct {
	Manager  *CollectionManager
	Embedder embedding.Provider
	Client   vectorindex.Client
	Logger   zerolog.Logger
}

// NewWriter creates a memory event writer.
func NewWriter(cfg WriterConfig) (*Writer, error) {
	if cfg.Manager == nil {
		return nil, errors.New("collection manager is required")
	}
	if cfg.Client == nil {
		return nil, errors.New("vector index client is required")
	}
	if cfg.Embedder == nil {
		return nil, errors.New("embedding provider is required")
	}
	return &Writer{
		manager:  cfg.Manager,
		embedder: cfg.Embedder,
		client:   cfg.Client,
		logger:   cfg.Logger,
	}, nil
}

// WriteRequest describes one event to persist.
type WriteRequest struct {
	Content   string
	Scope     Scope
	ProjectID string
	Metadata  map[string]interface{}

	// ID overrides the generated event id. Used by the knowledge seeder
	// for stable, idempotent upserts; leave zero otherwise.
	ID uuid.UUID

	// Vector supplies a precomputed embedding. Its length must match the
	// scope's vector size exactly.
	Vector []float32

	// DisableAutoEmbed skips embedding when no Vector is supplied. The
	// event is then stored without a vector and only reachable through
	// sparse retrieval.
	DisableAutoEmbed bool
}

// WriteEvent validates, optionally embeds, and persists an event, returning
// its id. Validation failures are local and happen before any I/O.
func (w *Writer) WriteEvent(ctx context.Context, req WriteRequest) (uuid.UUID, error) {
	ev := NewEvent(req.Content, req.Scope, req.ProjectID, req.Metadata)
	if req.ID != uuid.Nil {
		ev.ID = req.ID
	}

	if v := w.manager.ValidateEvent(ev); !v.Valid {
		return uuid.Nil, &ValidationError{Scope: ev.Scope, Validation: v}
	}

	schema := w.manager.Schemas().Schema(ev.Scope)
	switch {
	case req.Vector != nil:
		if len(req.Vector) != schema.VectorSize {
			return uuid.Nil, &DimensionError{Want: schema.VectorSize, Got: len(req.Vector)}
		}
		ev.Vector = req.Vector
	case !req.DisableAutoEmbed:
		vec, err := w.embedder.GenerateEmbedding(ctx, ev.Content)
		if err != nil {
			return uuid.Nil, &TransportError{Op: "embed", Err: err}
		}
		if len(vec) != schema.VectorSize {
			return uuid.Nil, &DimensionError{Want: schema.VectorSize, Got: len(vec)}
		}
		ev.Vector = vec
	}

	collection, err := w.manager.EnsureCollection(ctx, ev.Scope, ev.ProjectID)
	if err != nil {
		return uuid.Nil, err
	}

	point := vectorindex.Point{
		ID:      ev.ID.String(),
		Vector:  ev.Vector,
		Payload: ev.Payload(),
	}
	if err := w.client.Upsert(ctx, collection, []vectorindex.Point{point}); err != nil {
		// Metadata values are not safe to log verbatim; log shape only.
		w.logger.Error().
			Str("collection", collection).
			Str("scope", ev.Scope.String()).
			Str("event_id", ev.ID.String()).
			Int("content_len", len(ev.Content)).
			Str("content_preview", preview(ev.Content, 80)).
			Int("metadata_fields", len(ev.Metadata)).
			Err(err).
			Msg("Failed to persist event")
		return uuid.Nil, &TransportError{Op: "upsert", Collection: collection, Err: err}
	}

	w.logger.Debug().
		Str("collection", collection).
		Str("event_id", ev.ID.String()).
		Msg("Event written")
	return ev.ID, nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
