package memory

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannesnortje/agentmem/pkg/vectorindex"
)

// fakeClient wraps the in-memory index with injectable failures and call
// counters.
type fakeClient struct {
	*vectorindex.InMemory

	listErr     error
	createErr   error
	upsertErr   error
	createCalls atomic.Int32
	listCalls   atomic.Int32
	upsertCalls atomic.Int32
}

func newFakeClient() *fakeClient {
	return &fakeClient{InMemory: vectorindex.NewInMemory()}
}

func (c *fakeClient) ListCollections(ctx context.Context) ([]string, error) {
	c.listCalls.Add(1)
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.InMemory.ListCollections(ctx)
}

func (c *fakeClient) CreateCollection(ctx context.Context, spec vectorindex.CollectionSpec) error {
	c.createCalls.Add(1)
	if c.createErr != nil {
		return c.createErr
	}
	return c.InMemory.CreateCollection(ctx, spec)
}

func (c *fakeClient) Upsert(ctx context.Context, collection string, points []vectorindex.Point) error {
	c.upsertCalls.Add(1)
	if c.upsertErr != nil {
		return c.upsertErr
	}
	return c.InMemory.Upsert(ctx, collection, points)
}

func (c *fakeClient) backendCalls() int32 {
	return c.listCalls.Load() + c.createCalls.Load() + c.upsertCalls.Load()
}

func createTestManager(t *testing.T, client vectorindex.Client) *CollectionManager {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	m, err := NewCollectionManager(ManagerConfig{
		Client:     client,
		VectorSize: 384,
		Logger:     logger,
	})
	require.NoError(t, err)
	return m
}

func TestNewCollectionManager_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config ManagerConfig
	}{
		{
			name:   "nil client",
			config: ManagerConfig{VectorSize: 384},
		},
		{
			name:   "zero vector size",
			config: ManagerConfig{Client: newFakeClient()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewCollectionManager(tt.config)
			assert.Error(t, err)
			assert.Nil(t, m)
		})
	}
}

func TestCollectionName(t *testing.T) {
	m := createTestManager(t, newFakeClient())

	tests := []struct {
		name      string
		scope     Scope
		projectID string
		want      string
		wantErr   error
	}{
		{name: "global", scope: ScopeGlobal, want: "agentmem_global"},
		{name: "agent", scope: ScopeAgent, want: "agentmem_agent"},
		{name: "thread", scope: ScopeThread, want: "agentmem_thread"},
		{name: "objectives", scope: ScopeObjectives, want: "agentmem_objectives"},
		{name: "artifacts", scope: ScopeArtifacts, want: "agentmem_artifacts"},
		{name: "project", scope: ScopeProject, projectID: "alpha", want: "agentmem_project_alpha"},
		{name: "project without id", scope: ScopeProject, wantErr: ErrMissingProjectID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.CollectionName(tt.scope, tt.projectID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectionName_CustomNamespace(t *testing.T) {
	m, err := NewCollectionManager(ManagerConfig{
		Client:     newFakeClient(),
		VectorSize: 384,
		Namespace:  "teamx",
		Logger:     zerolog.New(os.Stdout).Level(zerolog.Disabled),
	})
	require.NoError(t, err)

	name, err := m.CollectionName(ScopeProject, "beta")
	require.NoError(t, err)
	assert.Equal(t, "teamx_project_beta", name)
}

func TestEnsureCollection_CreatesThenMemoizes(t *testing.T) {
	client := newFakeClient()
	m := createTestManager(t, client)
	ctx := context.Background()

	name, err := m.EnsureCollection(ctx, ScopeGlobal, "")
	require.NoError(t, err)
	assert.Equal(t, "agentmem_global", name)
	assert.Equal(t, int32(1), client.createCalls.Load())

	// Second call hits the ensured-set, no further backend traffic.
	listBefore := client.listCalls.Load()
	name, err = m.EnsureCollection(ctx, ScopeGlobal, "")
	require.NoError(t, err)
	assert.Equal(t, "agentmem_global", name)
	assert.Equal(t, listBefore, client.listCalls.Load())
	assert.Equal(t, int32(1), client.createCalls.Load())
}

func TestEnsureCollection_AdoptsExisting(t *testing.T) {
	client := newFakeClient()
	require.NoError(t, client.InMemory.CreateCollection(context.Background(), vectorindex.CollectionSpec{
		Name:       "agentmem_thread",
		VectorSize: 384,
		Distance:   vectorindex.DistanceCosine,
	}))

	m := createTestManager(t, client)
	name, err := m.EnsureCollection(context.Background(), ScopeThread, "")
	require.NoError(t, err)
	assert.Equal(t, "agentmem_thread", name)
	assert.Equal(t, int32(0), client.createCalls.Load())
}

func TestEnsureCollection_ConflictIsSuccess(t *testing.T) {
	client := newFakeClient()
	client.createErr = vectorindex.ErrCollectionExists

	m := createTestManager(t, client)
	name, err := m.EnsureCollection(context.Background(), ScopeAgent, "")
	require.NoError(t, err)
	assert.Equal(t, "agentmem_agent", name)
}

func TestEnsureCollection_TransportErrorRetries(t *testing.T) {
	client := newFakeClient()
	client.createErr = errors.New("index unavailable")

	m := createTestManager(t, client)
	ctx := context.Background()

	_, err := m.EnsureCollection(ctx, ScopeObjectives, "")
	require.Error(t, err)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "create_collection", terr.Op)
	assert.Equal(t, "agentmem_objectives", terr.Collection)

	// Failure must not be memoized; the next call reaches the backend again.
	client.createErr = nil
	name, err := m.EnsureCollection(ctx, ScopeObjectives, "")
	require.NoError(t, err)
	assert.Equal(t, "agentmem_objectives", name)
	assert.Equal(t, int32(2), client.createCalls.Load())
}

func TestEnsureCollection_Concurrent(t *testing.T) {
	client := newFakeClient()
	m := createTestManager(t, client)

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.EnsureCollection(context.Background(), ScopeGlobal, "")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	names, err := client.InMemory.ListCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"agentmem_global"}, names)
}

func TestInitializeAll(t *testing.T) {
	client := newFakeClient()
	m := createTestManager(t, client)

	report := m.InitializeAll(context.Background(), []string{"alpha", "beta"})

	assert.Empty(t, report.Errors)
	assert.Len(t, report.Collections, 7)
	assert.Equal(t, "agentmem_global", report.Collections["global"])
	assert.Equal(t, "agentmem_project_alpha", report.Collections["project:alpha"])
	assert.Equal(t, "agentmem_project_beta", report.Collections["project:beta"])
	assert.NotContains(t, report.Collections, "project")
}

func TestInitializeAll_PartialFailure(t *testing.T) {
	client := newFakeClient()
	client.listErr = errors.New("connection refused")
	m := createTestManager(t, client)

	report := m.InitializeAll(context.Background(), []string{"alpha"})

	assert.Empty(t, report.Collections)
	assert.Len(t, report.Errors, 6)
	assert.Contains(t, report.Errors, "global")
	assert.Contains(t, report.Errors, "project:alpha")
}

func TestCollectionExists(t *testing.T) {
	client := newFakeClient()
	m := createTestManager(t, client)
	ctx := context.Background()

	assert.False(t, m.CollectionExists(ctx, "agentmem_global"))

	_, err := m.EnsureCollection(ctx, ScopeGlobal, "")
	require.NoError(t, err)
	assert.True(t, m.CollectionExists(ctx, "agentmem_global"))

	// Advisory semantics: transport failure reads as absent, never errors.
	client.listErr = errors.New("timeout")
	assert.False(t, m.CollectionExists(ctx, "agentmem_global"))
}

func TestManagerValidateEvent(t *testing.T) {
	m := createTestManager(t, newFakeClient())

	ev := NewEvent("note", ScopeThread, "", map[string]interface{}{})
	v := m.ValidateEvent(ev)
	assert.False(t, v.Valid)
	assert.Equal(t, ReasonMissingField, v.Reason)
	assert.Equal(t, "thread_id", v.Field)
}
