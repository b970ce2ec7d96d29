// Package seed performs the idempotent one-time load of canonical knowledge
// into the global memory scope. Stable, content-derived ids make re-seeding
// an overwrite rather than a duplicate insert.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hannesnortje/agentmem/pkg/memory"
	"github.com/hannesnortje/agentmem/pkg/vectorindex"
)

// idNamespace is the fixed namespace for name-based seed ids. Changing it
// would re-identify every canonical item, so it never changes.
var idNamespace = uuid.MustParse("7f9df0a4-2c1b-4cfa-9e3b-6a5d8c0f4b21")

// seedMarkerField is set in every seeded event's metadata and doubles as
// the sentinel the already-seeded check looks for.
const seedMarkerField = "seed_marker"

// Seeding outcome statuses. A skip is a normal outcome, not an error.
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
)

// StableID deterministically derives the event id for a canonical knowledge
// item from its category and the first 100 bytes of its content. Identical
// inputs always produce the identical id.
func StableID(content, category string) uuid.UUID {
	trimmed := content
	if len(trimmed) > 100 {
		trimmed = trimmed[:100]
	}
	return uuid.NewSHA1(idNamespace, []byte(category+":"+trimmed))
}

// Report summarizes one seeding run.
type Report struct {
	Status      string
	Reason      string // set when Status == StatusSkipped
	SeededCount int
	TotalItems  int
	Errors      []string
}

// Seeder loads the canonical knowledge set into the global collection.
type Seeder struct {
	writer  *memory.Writer
	manager *memory.CollectionManager
	client  vectorindex.Client
	logger  zerolog.Logger
	items   []KnowledgeItem
}

// SeederConfig holds seeder configuration. Items defaults to
// CanonicalKnowledge when empty.
type SeederConfig struct {
	Writer  *memory.Writer
	Manager *memory.CollectionManager
	Client  vectorindex.Client
	Logger  zerolog.Logger
	Items   []KnowledgeItem
}

// NewSeeder creates a knowledge seeder.
func NewSeeder(cfg SeederConfig) (*Seeder, error) {
	if cfg.Writer == nil {
		return nil, errors.New("writer is required")
	}
	if cfg.Manager == nil {
		return nil, errors.New("collection manager is required")
	}
	if cfg.Client == nil {
		return nil, errors.New("vector index client is required")
	}
	items := cfg.Items
	if len(items) == 0 {
		items = CanonicalKnowledge
	}
	return &Seeder{
		writer:  cfg.Writer,
		manager: cfg.Manager,
		client:  cfg.Client,
		logger:  cfg.Logger,
		items:   items,
	}, nil
}

// IsSeeded inspects the global collection for the seed sentinel: a point
// carrying the seed marker, or failing that, a point count at least the
// size of the canonical set.
func (s *Seeder) IsSeeded(ctx context.Context) (bool, error) {
	name, err := s.manager.CollectionName(memory.ScopeGlobal, "")
	if err != nil {
		return false, err
	}
	if !s.manager.CollectionExists(ctx, name) {
		return false, nil
	}

	page, err := s.client.Scroll(ctx, name, vectorindex.ScrollRequest{
		Limit:       1,
		WithPayload: true,
		Filter:      map[string]interface{}{"metadata." + seedMarkerField: true},
	})
	if err != nil {
		return false, &memory.TransportError{Op: "scroll", Collection: name, Err: err}
	}
	if len(page.Points) > 0 {
		return true, nil
	}

	// Fallback for backends whose scroll cannot see points written by an
	// earlier process.
	info, err := s.client.CollectionInfo(ctx, name)
	if err != nil {
		return false, &memory.TransportError{Op: "collection_info", Collection: name, Err: err}
	}
	return info.PointCount >= len(s.items), nil
}

// SeedGlobalKnowledge performs the idempotent bulk load. A prior successful
// seed makes it return immediately with a skipped status and no writes.
// Individual item failures are collected; only an unreachable index aborts.
func (s *Seeder) SeedGlobalKnowledge(ctx context.Context) (Report, error) {
	report := Report{TotalItems: len(s.items)}

	// Hard transport failure is fatal before any per-item work starts.
	if !s.client.Healthy(ctx) {
		return report, &memory.TransportError{Op: "health_check", Err: errors.New("vector index unreachable")}
	}
	if _, err := s.manager.EnsureCollection(ctx, memory.ScopeGlobal, ""); err != nil {
		return report, err
	}

	seeded, err := s.IsSeeded(ctx)
	if err != nil {
		return report, err
	}
	if seeded {
		report.Status = StatusSkipped
		report.Reason = "global knowledge already seeded"
		s.logger.Info().Msg("Seeding skipped, global knowledge already present")
		return report, nil
	}

	for _, item := range s.items {
		id := StableID(item.Content, item.Category)
		_, err := s.writer.WriteEvent(ctx, memory.WriteRequest{
			ID:      id,
			Content: item.Content,
			Scope:   memory.ScopeGlobal,
			Metadata: map[string]interface{}{
				"category":      item.Category,
				"source":        "canonical_seed",
				seedMarkerField: true,
			},
		})
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", id, err))
			s.logger.Warn().Err(err).Str("category", item.Category).Msg("Failed to seed knowledge item")
			continue
		}
		report.SeededCount++
	}

	report.Status = StatusCompleted
	s.logger.Info().
		Int("seeded", report.SeededCount).
		Int("total", report.TotalItems).
		Int("failed", len(report.Errors)).
		Msg("Global knowledge seeding completed")
	return report, nil
}
