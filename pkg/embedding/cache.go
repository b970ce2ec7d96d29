package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/ristretto"
)

// CachedProvider decorates a Provider with a content-addressed embedding
// cache. Embeddings are deterministic for identical input and model, so
// cached values never go stale.
type CachedProvider struct {
	inner Provider
	cache *ristretto.Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports cache effectiveness counters.
type CacheStats struct {
	Hits   int64
	Misses int64
}

// NewCachedProvider wraps inner with a ristretto cache holding up to
// maxEntries embeddings. maxEntries <= 0 selects a default of 4096.
func NewCachedProvider(inner Provider, maxEntries int64) (*CachedProvider, error) {
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &CachedProvider{inner: inner, cache: cache}, nil
}

func (p *CachedProvider) Dimension() int {
	return p.inner.Dimension()
}

func (p *CachedProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if value, ok := p.cache.Get(key); ok {
		if vec, ok := value.([]float32); ok {
			p.hits.Add(1)
			return vec, nil
		}
	}
	p.misses.Add(1)

	vec, err := p.inner.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, vec, 1)
	return vec, nil
}

func (p *CachedProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if value, ok := p.cache.Get(cacheKey(text)); ok {
			if vec, ok := value.([]float32); ok {
				p.hits.Add(1)
				out[i] = vec
				continue
			}
		}
		p.misses.Add(1)
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		vecs, err := p.inner.GenerateEmbeddings(ctx, missing)
		if err != nil {
			return nil, err
		}
		for j, vec := range vecs {
			out[missingIdx[j]] = vec
			p.cache.Set(cacheKey(missing[j]), vec, 1)
		}
	}
	return out, nil
}

// Wait blocks until buffered cache writes are applied. Ristretto applies
// sets asynchronously; call this before relying on a just-written entry.
func (p *CachedProvider) Wait() {
	p.cache.Wait()
}

// Stats returns hit/miss counters accumulated since construction.
func (p *CachedProvider) Stats() CacheStats {
	return CacheStats{Hits: p.hits.Load(), Misses: p.misses.Load()}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
