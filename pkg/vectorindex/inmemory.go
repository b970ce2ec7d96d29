package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
)

// InMemory is an exact-search, process-local Client. It backs unit tests and
// serves as a zero-dependency fallback backend; it is not meant for large
// corpora.
type InMemory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	spec   CollectionSpec
	points map[string]Point
	order  []string // insertion order, for stable scroll pages
}

// NewInMemory creates an empty in-memory index.
func NewInMemory() *InMemory {
	return &InMemory{collections: make(map[string]*memCollection)}
}

func (m *InMemory) ListCollections(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *InMemory) CreateCollection(ctx context.Context, spec CollectionSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[spec.Name]; ok {
		return fmt.Errorf("%q: %w", spec.Name, ErrCollectionExists)
	}
	m.collections[spec.Name] = &memCollection{
		spec:   spec,
		points: make(map[string]Point),
	}
	return nil
}

func (m *InMemory) CollectionInfo(ctx context.Context, name string) (CollectionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[name]
	if !ok {
		return CollectionInfo{}, fmt.Errorf("%q: %w", name, ErrCollectionNotFound)
	}
	return CollectionInfo{Name: name, PointCount: len(col.points)}, nil
}

func (m *InMemory) Upsert(ctx context.Context, collection string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("%q: %w", collection, ErrCollectionNotFound)
	}
	for _, p := range points {
		if _, exists := col.points[p.ID]; !exists {
			col.order = append(col.order, p.ID)
		}
		col.points[p.ID] = p
	}
	return nil
}

func (m *InMemory) Search(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%q: %w", collection, ErrCollectionNotFound)
	}

	hits := make([]ScoredPoint, 0, len(col.points))
	for _, id := range col.order {
		p := col.points[id]
		if len(p.Vector) == 0 {
			continue
		}
		hits = append(hits, ScoredPoint{
			ID:      p.ID,
			Score:   cosineSimilarity(vector, p.Vector),
			Payload: p.Payload,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *InMemory) Scroll(ctx context.Context, collection string, req ScrollRequest) (ScrollPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[collection]
	if !ok {
		return ScrollPage{}, fmt.Errorf("%q: %w", collection, ErrCollectionNotFound)
	}

	start := 0
	if req.Offset != "" {
		n, err := strconv.Atoi(req.Offset)
		if err != nil {
			return ScrollPage{}, fmt.Errorf("invalid scroll offset %q", req.Offset)
		}
		start = n
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	var page ScrollPage
	i := start
	for ; i < len(col.order) && len(page.Points) < limit; i++ {
		p := col.points[col.order[i]]
		if !MatchesFilter(p.Payload, req.Filter) {
			continue
		}
		out := Point{ID: p.ID}
		if req.WithPayload {
			out.Payload = p.Payload
		}
		if req.WithVector {
			out.Vector = p.Vector
		}
		page.Points = append(page.Points, out)
	}
	if i < len(col.order) {
		page.NextOffset = strconv.Itoa(i)
	}
	return page, nil
}

func (m *InMemory) Healthy(ctx context.Context) bool {
	return true
}

func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
