package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hannesnortje/agentmem/pkg/vectorindex"
)

// CollectionManager resolves scopes to collection names and lazily ensures
// the backing collections exist. Instances own their ensured-set: multiple
// managers can coexist in one process without shared globals.
type CollectionManager struct {
	client    vectorindex.Client
	schemas   *SchemaRegistry
	namespace string
	logger    zerolog.Logger

	mu      sync.Mutex
	ensured map[string]struct{}
}

// ManagerConfig holds collection manager configuration.
type ManagerConfig struct {
	Client     vectorindex.Client
	VectorSize int
	Namespace  string // defaults to DefaultNamespace
	Logger     zerolog.Logger
}

// NewCollectionManager creates a collection manager.
func NewCollectionManager(cfg ManagerConfig) (*CollectionManager, error) {
	if cfg.Client == nil {
		return nil, errors.New("vector index client is required")
	}
	if cfg.VectorSize <= 0 {
		return nil, errors.New("vector size must be positive")
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CollectionManager{
		client:    cfg.Client,
		schemas:   NewSchemaRegistry(cfg.VectorSize),
		namespace: namespace,
		logger:    cfg.Logger,
		ensured:   make(map[string]struct{}),
	}, nil
}

// Schemas exposes the registry so collaborators share one schema source.
func (m *CollectionManager) Schemas() *SchemaRegistry {
	return m.schemas
}

// Namespace returns the collection name prefix this manager resolves with.
func (m *CollectionManager) Namespace() string {
	return m.namespace
}

// CollectionName deterministically resolves a scope to its collection name.
// Same inputs always yield the same name.
func (m *CollectionManager) CollectionName(scope Scope, projectID string) (string, error) {
	if scope.RequiresProject() {
		if projectID == "" {
			return "", ErrMissingProjectID
		}
		return fmt.Sprintf("%s_project_%s", m.namespace, projectID), nil
	}
	return fmt.Sprintf("%s_%s", m.namespace, scope), nil
}

// EnsureCollection makes sure the collection behind (scope, projectID)
// exists and returns its name. Results are memoized per process; the
// memoization is a performance shortcut only and is never treated as proof
// of existence across restarts. A creation conflict from the index is
// expected under concurrent first-use and counts as success.
func (m *CollectionManager) EnsureCollection(ctx context.Context, scope Scope, projectID string) (string, error) {
	name, err := m.CollectionName(scope, projectID)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	_, done := m.ensured[name]
	m.mu.Unlock()
	if done {
		return name, nil
	}

	existing, err := m.client.ListCollections(ctx)
	if err != nil {
		return "", &TransportError{Op: "list_collections", Collection: name, Err: err}
	}
	for _, c := range existing {
		if c == name {
			m.markEnsured(name)
			return name, nil
		}
	}

	schema := m.schemas.Schema(scope)
	err = m.client.CreateCollection(ctx, vectorindex.CollectionSpec{
		Name:       name,
		VectorSize: schema.VectorSize,
		Distance:   schema.Distance,
	})
	switch {
	case err == nil:
		m.logger.Info().
			Str("collection", name).
			Str("scope", scope.String()).
			Int("vector_size", schema.VectorSize).
			Msg("Collection created")
	case errors.Is(err, vectorindex.ErrCollectionExists):
		// Lost a creation race; the collection exists, which is all we need.
		m.logger.Debug().Str("collection", name).Msg("Collection already existed")
	default:
		// Not cached: the next call must retry.
		return "", &TransportError{Op: "create_collection", Collection: name, Err: err}
	}

	m.markEnsured(name)
	return name, nil
}

func (m *CollectionManager) markEnsured(name string) {
	m.mu.Lock()
	m.ensured[name] = struct{}{}
	m.mu.Unlock()
}

// InitReport summarizes a batch initialization: which collections were
// ensured, and which scope/project combinations failed.
type InitReport struct {
	Collections map[string]string // scope key -> collection name
	Errors      map[string]string // scope key -> failure description
}

// InitializeAll ensures every singleton-scope collection plus one project
// collection per supplied id. Per-scope failures are collected, not fatal;
// the report records everything that succeeded.
func (m *CollectionManager) InitializeAll(ctx context.Context, projectIDs []string) InitReport {
	report := InitReport{
		Collections: make(map[string]string),
		Errors:      make(map[string]string),
	}

	for _, scope := range Scopes() {
		if scope.RequiresProject() {
			continue
		}
		name, err := m.EnsureCollection(ctx, scope, "")
		if err != nil {
			report.Errors[scope.String()] = err.Error()
			m.logger.Warn().Err(err).Str("scope", scope.String()).Msg("Failed to ensure collection")
			continue
		}
		report.Collections[scope.String()] = name
	}

	for _, projectID := range projectIDs {
		key := "project:" + projectID
		name, err := m.EnsureCollection(ctx, ScopeProject, projectID)
		if err != nil {
			report.Errors[key] = err.Error()
			m.logger.Warn().Err(err).Str("project", projectID).Msg("Failed to ensure project collection")
			continue
		}
		report.Collections[key] = name
	}

	return report
}

// ValidateEvent checks an event against its scope's schema. Pure, no I/O.
func (m *CollectionManager) ValidateEvent(ev Event) Validation {
	return ValidateEvent(ev, m.schemas.Schema(ev.Scope))
}

// CollectionExists is an advisory point query: it returns false on any
// transport failure rather than erroring.
func (m *CollectionManager) CollectionExists(ctx context.Context, name string) bool {
	existing, err := m.client.ListCollections(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Str("collection", name).Msg("Existence check failed")
		return false
	}
	for _, c := range existing {
		if c == name {
			return true
		}
	}
	return false
}
