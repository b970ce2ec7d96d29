package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeString(t *testing.T) {
	tests := []struct {
		scope Scope
		want  string
	}{
		{ScopeGlobal, "global"},
		{ScopeProject, "project"},
		{ScopeAgent, "agent"},
		{ScopeThread, "thread"},
		{ScopeObjectives, "objectives"},
		{ScopeArtifacts, "artifacts"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.String())
		})
	}
}

func TestParseScope_RoundTrip(t *testing.T) {
	for _, scope := range Scopes() {
		parsed, err := ParseScope(scope.String())
		require.NoError(t, err)
		assert.Equal(t, scope, parsed)
	}
}

func TestParseScope_Unknown(t *testing.T) {
	_, err := ParseScope("session")
	assert.Error(t, err)
}

func TestRequiresProject(t *testing.T) {
	for _, scope := range Scopes() {
		assert.Equal(t, scope == ScopeProject, scope.RequiresProject(), scope.String())
	}
}

func TestSchemaRegistry_AllScopesCovered(t *testing.T) {
	registry := NewSchemaRegistry(384)

	for _, scope := range Scopes() {
		schema := registry.Schema(scope)
		assert.Equal(t, scope, schema.Scope)
		assert.Equal(t, 384, schema.VectorSize)
		assert.NotEmpty(t, schema.Description, scope.String())
		assert.NotEmpty(t, schema.RequiredFields, scope.String())
	}
}
