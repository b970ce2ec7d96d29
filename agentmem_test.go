package agentmem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannesnortje/agentmem/internal/config"
	"github.com/hannesnortje/agentmem/internal/logger"
	"github.com/hannesnortje/agentmem/pkg/memory"
	"github.com/hannesnortje/agentmem/pkg/seed"
)

func createTestService(t *testing.T) *Service {
	cfg := config.DefaultConfig()
	cfg.Index.Backend = config.BackendInMemory
	cfg.Embedding.Provider = config.EmbeddingMock
	cfg.Embedding.Dimension = 64

	s, err := New(cfg, zerolog.New(os.Stdout).Level(zerolog.Disabled))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Index.Backend = "pinecone"

	s, err := New(cfg, zerolog.Nop())
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestServiceInitializeCollections(t *testing.T) {
	s := createTestService(t)

	report := s.InitializeCollections(context.Background(), []string{"alpha"})
	assert.Empty(t, report.Errors)
	assert.Equal(t, "agentmem_global", report.Collections["global"])
	assert.Equal(t, "agentmem_project_alpha", report.Collections["project:alpha"])
}

func TestServiceWriteAndSearch(t *testing.T) {
	s := createTestService(t)
	ctx := context.Background()

	id, err := s.WriteEvent(ctx, memory.WriteRequest{
		Content:  "deployments use blue green rollout",
		Scope:    memory.ScopeGlobal,
		Metadata: map[string]interface{}{"category": "workflow"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	results, err := s.Search(ctx, memory.ScopeGlobal, "", "deployments use blue green rollout", 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, id, results[0].ID)
	assert.Equal(t, "deployments use blue green rollout", results[0].Payload["content"])
}

func TestServiceRebuildSparseIndex(t *testing.T) {
	s := createTestService(t)
	ctx := context.Background()

	for _, content := range []string{
		"first note about tokenizer edge cases",
		"second note about connection pooling",
	} {
		_, err := s.WriteEvent(ctx, memory.WriteRequest{
			Content:  content,
			Scope:    memory.ScopeGlobal,
			Metadata: map[string]interface{}{"category": "workflow"},
		})
		require.NoError(t, err)
	}

	n, err := s.RebuildSparseIndex(ctx, memory.ScopeGlobal, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids := s.Engine().SparseSearch("tokenizer edge cases", 5)
	assert.NotEmpty(t, ids)
}

func TestServiceSeedGlobalKnowledge(t *testing.T) {
	s := createTestService(t)
	ctx := context.Background()

	report, err := s.SeedGlobalKnowledge(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed.StatusCompleted, report.Status)
	assert.Equal(t, report.TotalItems, report.SeededCount)

	again, err := s.SeedGlobalKnowledge(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed.StatusSkipped, again.Status)
}

func TestServiceStats(t *testing.T) {
	s := createTestService(t)
	ctx := context.Background()

	_, err := s.WriteEvent(ctx, memory.WriteRequest{
		Content:  "one stored event",
		Scope:    memory.ScopeThread,
		Metadata: map[string]interface{}{"thread_id": "t-1"},
	})
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["agentmem_thread"])
}

func TestNewFromConfig(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "memory.log")

	cfg := config.DefaultConfig()
	cfg.Index.Backend = config.BackendInMemory
	cfg.Embedding.Dimension = 64
	cfg.Logging = config.LoggingConfig{
		Level:     "info",
		File:      logPath,
		Redaction: true,
	}

	s, err := NewFromConfig(cfg)
	require.NoError(t, err)

	report := s.InitializeCollections(context.Background(), nil)
	require.Empty(t, report.Errors)
	require.NoError(t, s.Close())

	// Components log through the config-built logger, and the redactor
	// guards the output.
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Collection created")
	assert.Contains(t, string(data), "agentmem_global")

	s2, err := NewFromConfig(cfg)
	require.NoError(t, err)
	s2.logger.Info().Str("key", "sk-abcdefghijklmnopqrstuvwxyz123456").Msg("configured")
	require.NoError(t, s2.Close())

	data, err = os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-abcdefghijklmnopqrstuvwxyz123456")
	assert.Contains(t, string(data), logger.Redacted)
}

func TestNewFromConfig_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "local"

	s, err := NewFromConfig(cfg)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestServiceStats_ForeignNamespaceExcluded(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Index.Backend = config.BackendInMemory
	cfg.Embedding.Dimension = 64
	cfg.Namespace = "teamx"

	s, err := New(cfg, zerolog.New(os.Stdout).Level(zerolog.Disabled))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	_, err = s.WriteEvent(ctx, memory.WriteRequest{
		Content:  "scoped to this service",
		Scope:    memory.ScopeGlobal,
		Metadata: map[string]interface{}{"category": "workflow"},
	})
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"teamx_global": 1}, stats)
}
