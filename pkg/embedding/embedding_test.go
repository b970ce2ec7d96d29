package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_Deterministic(t *testing.T) {
	p := NewMockProvider(64)
	ctx := context.Background()

	a, err := p.GenerateEmbedding(ctx, "same input")
	require.NoError(t, err)
	b, err := p.GenerateEmbedding(ctx, "same input")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.Equal(t, 64, p.Dimension())
}

func TestMockProvider_Batch(t *testing.T) {
	p := NewMockProvider(16)

	vecs, err := p.GenerateEmbeddings(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	single, err := p.GenerateEmbedding(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[0])
}

// trackingProvider counts how often the inner provider is actually hit.
type trackingProvider struct {
	Provider
	calls atomic.Int32
	err   error
}

func (p *trackingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.Provider.GenerateEmbedding(ctx, text)
}

func (p *trackingProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.Provider.GenerateEmbeddings(ctx, texts)
}

func TestCachedProvider_HitSkipsInner(t *testing.T) {
	inner := &trackingProvider{Provider: NewMockProvider(32)}
	p, err := NewCachedProvider(inner, 128)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := p.GenerateEmbedding(ctx, "cache me")
	require.NoError(t, err)
	p.Wait()

	second, err := p.GenerateEmbedding(ctx, "cache me")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.calls.Load())

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCachedProvider_BatchFillsFromCache(t *testing.T) {
	inner := &trackingProvider{Provider: NewMockProvider(32)}
	p, err := NewCachedProvider(inner, 128)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = p.GenerateEmbedding(ctx, "known")
	require.NoError(t, err)
	p.Wait()

	vecs, err := p.GenerateEmbeddings(ctx, []string{"known", "unknown"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.NotNil(t, vecs[0])
	assert.NotNil(t, vecs[1])

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestCachedProvider_InnerErrorPropagates(t *testing.T) {
	inner := &trackingProvider{Provider: NewMockProvider(32), err: errors.New("quota exceeded")}
	p, err := NewCachedProvider(inner, 128)
	require.NoError(t, err)

	_, err = p.GenerateEmbedding(context.Background(), "fails")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestCachedProvider_Dimension(t *testing.T) {
	p, err := NewCachedProvider(NewMockProvider(48), 0)
	require.NoError(t, err)
	assert.Equal(t, 48, p.Dimension())
}
