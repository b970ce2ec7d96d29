package vectorindex

import (
	"context"
	"errors"
	"time"
)

// Distance identifies the similarity metric a collection is built with.
type Distance string

const (
	DistanceCosine    Distance = "Cosine"
	DistanceDot       Distance = "Dot"
	DistanceEuclidean Distance = "Euclid"
)

var (
	// ErrCollectionExists is returned by CreateCollection when the collection
	// is already present. Callers treat it as a benign outcome of concurrent
	// first-use, not a failure.
	ErrCollectionExists = errors.New("collection already exists")

	// ErrCollectionNotFound is returned when an operation targets a
	// collection that has not been created.
	ErrCollectionNotFound = errors.New("collection not found")
)

// CollectionSpec describes a collection to create.
type CollectionSpec struct {
	Name       string
	VectorSize int
	Distance   Distance
}

// CollectionInfo summarizes an existing collection.
type CollectionInfo struct {
	Name       string
	PointCount int
}

// Point is a single stored vector with its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// ScoredPoint is a search hit, ordered by the backend's similarity score.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]interface{}
}

// ScrollRequest pages through a collection's points.
type ScrollRequest struct {
	Limit       int
	Offset      string // opaque cursor, empty for the first page
	WithPayload bool
	WithVector  bool
	// Filter restricts results to points whose payload matches every
	// key/value pair. Backends apply it best-effort.
	Filter map[string]interface{}
}

// ScrollPage is one page of a scroll.
type ScrollPage struct {
	Points     []Point
	NextOffset string // empty when exhausted
}

// Client is the thin contract against a vector index backend. Remote
// implementations (qdrant) and embedded ones (chromem, sqlitevec, InMemory)
// satisfy the same interface so the memory layer stays backend-agnostic.
type Client interface {
	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)

	// CreateCollection creates a collection, returning ErrCollectionExists
	// if one with the same name is already present.
	CreateCollection(ctx context.Context, spec CollectionSpec) error

	// CollectionInfo returns point-count metadata for a collection.
	CollectionInfo(ctx context.Context, name string) (CollectionInfo, error)

	// Upsert inserts or replaces points by id.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns up to limit points ranked by similarity to vector.
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredPoint, error)

	// Scroll pages through points in a collection.
	Scroll(ctx context.Context, collection string, req ScrollRequest) (ScrollPage, error)

	// Healthy reports whether the backend is reachable.
	Healthy(ctx context.Context) bool
}

// DefaultTimeout bounds a single backend call when the caller supplies no
// deadline of its own.
const DefaultTimeout = 30 * time.Second
