// Package chromem implements the vectorindex.Client contract on top of
// chromem-go, an embedded pure-Go vector database. It needs no external
// service, which makes it the default backend for local development.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/hannesnortje/agentmem/pkg/vectorindex"
)

// payloadKey is the metadata key the JSON-encoded payload is stored under.
const payloadKey = "_payload"

// Store wraps a chromem DB. chromem has no point enumeration API, so the
// store keeps a side registry of point ids per collection to serve Scroll;
// the registry only covers points written through this process.
type Store struct {
	db *chromemgo.DB

	mu    sync.RWMutex
	specs map[string]vectorindex.CollectionSpec
	ids   map[string][]string            // collection -> insertion-ordered ids
	seen  map[string]map[string]struct{} // collection -> id set
}

// New creates an empty chromem-backed store.
func New() *Store {
	return &Store{
		db:    chromemgo.NewDB(),
		specs: make(map[string]vectorindex.CollectionSpec),
		ids:   make(map[string][]string),
		seen:  make(map[string]map[string]struct{}),
	}
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	for name := range s.db.ListCollections() {
		names = append(names, name)
	}
	return names, nil
}

func (s *Store) CreateCollection(ctx context.Context, spec vectorindex.CollectionSpec) error {
	if existing := s.db.GetCollection(spec.Name, nil); existing != nil {
		return fmt.Errorf("%q: %w", spec.Name, vectorindex.ErrCollectionExists)
	}
	if _, err := s.db.CreateCollection(spec.Name, nil, nil); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	s.mu.Lock()
	s.specs[spec.Name] = spec
	s.seen[spec.Name] = make(map[string]struct{})
	s.mu.Unlock()
	return nil
}

func (s *Store) CollectionInfo(ctx context.Context, name string) (vectorindex.CollectionInfo, error) {
	col := s.db.GetCollection(name, nil)
	if col == nil {
		return vectorindex.CollectionInfo{}, fmt.Errorf("%q: %w", name, vectorindex.ErrCollectionNotFound)
	}
	return vectorindex.CollectionInfo{Name: name, PointCount: col.Count()}, nil
}

func (s *Store) Upsert(ctx context.Context, collection string, points []vectorindex.Point) error {
	col := s.db.GetCollection(collection, nil)
	if col == nil {
		return fmt.Errorf("%q: %w", collection, vectorindex.ErrCollectionNotFound)
	}

	for _, p := range points {
		meta, err := encodePayload(p.Payload)
		if err != nil {
			return err
		}
		doc := chromemgo.Document{
			ID:        p.ID,
			Content:   contentString(p.Payload),
			Embedding: p.Vector,
			Metadata:  meta,
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add document %s: %w", p.ID, err)
		}
		s.track(collection, p.ID)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int) ([]vectorindex.ScoredPoint, error) {
	col := s.db.GetCollection(collection, nil)
	if col == nil {
		return nil, fmt.Errorf("%q: %w", collection, vectorindex.ErrCollectionNotFound)
	}

	// chromem rejects nResults larger than the document count.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := col.QueryEmbedding(ctx, vector, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]vectorindex.ScoredPoint, len(results))
	for i, r := range results {
		hits[i] = vectorindex.ScoredPoint{
			ID:      r.ID,
			Score:   r.Similarity,
			Payload: decodePayload(r.Metadata),
		}
	}
	return hits, nil
}

func (s *Store) Scroll(ctx context.Context, collection string, req vectorindex.ScrollRequest) (vectorindex.ScrollPage, error) {
	col := s.db.GetCollection(collection, nil)
	if col == nil {
		return vectorindex.ScrollPage{}, fmt.Errorf("%q: %w", collection, vectorindex.ErrCollectionNotFound)
	}

	s.mu.RLock()
	order := append([]string(nil), s.ids[collection]...)
	s.mu.RUnlock()

	start := 0
	if req.Offset != "" {
		if _, err := fmt.Sscanf(req.Offset, "%d", &start); err != nil {
			return vectorindex.ScrollPage{}, fmt.Errorf("invalid scroll offset %q", req.Offset)
		}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	var page vectorindex.ScrollPage
	i := start
	for ; i < len(order) && len(page.Points) < limit; i++ {
		doc, err := col.GetByID(ctx, order[i])
		if err != nil {
			continue
		}
		payload := decodePayload(doc.Metadata)
		if !vectorindex.MatchesFilter(payload, req.Filter) {
			continue
		}
		point := vectorindex.Point{ID: doc.ID}
		if req.WithPayload {
			point.Payload = payload
		}
		if req.WithVector {
			point.Vector = doc.Embedding
		}
		page.Points = append(page.Points, point)
	}
	if i < len(order) {
		page.NextOffset = fmt.Sprint(i)
	}
	return page, nil
}

func (s *Store) Healthy(ctx context.Context) bool {
	return true
}

func (s *Store) track(collection, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.seen[collection]
	if !ok {
		set = make(map[string]struct{})
		s.seen[collection] = set
	}
	if _, dup := set[id]; !dup {
		set[id] = struct{}{}
		s.ids[collection] = append(s.ids[collection], id)
	}
}

// encodePayload flattens the payload into chromem's string-only metadata,
// keeping the full structure under payloadKey.
func encodePayload(payload map[string]interface{}) (map[string]string, error) {
	meta := make(map[string]string, len(payload)+1)
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	meta[payloadKey] = string(raw)
	for k, v := range payload {
		if str, ok := v.(string); ok {
			meta[k] = str
		}
	}
	return meta, nil
}

func decodePayload(meta map[string]string) map[string]interface{} {
	raw, ok := meta[payloadKey]
	if !ok {
		return nil
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload
}

func contentString(payload map[string]interface{}) string {
	if c, ok := payload["content"].(string); ok && c != "" {
		return c
	}
	return " "
}
