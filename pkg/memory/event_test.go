package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEvent(t *testing.T) {
	registry := NewSchemaRegistry(384)

	tests := []struct {
		name     string
		scope    Scope
		content  string
		metadata map[string]interface{}
		valid    bool
		reason   ValidationReason
		field    string
	}{
		{
			name:     "valid global event",
			scope:    ScopeGlobal,
			content:  "always run the linter before pushing",
			metadata: map[string]interface{}{"category": "workflow"},
			valid:    true,
			reason:   ValidationOK,
		},
		{
			name:     "empty content",
			scope:    ScopeGlobal,
			content:  "",
			metadata: map[string]interface{}{"category": "workflow"},
			reason:   ReasonEmptyContent,
		},
		{
			name:     "whitespace only content",
			scope:    ScopeGlobal,
			content:  "   \n\t  ",
			metadata: map[string]interface{}{"category": "workflow"},
			reason:   ReasonEmptyContent,
		},
		{
			name:     "missing category",
			scope:    ScopeGlobal,
			content:  "some knowledge",
			metadata: map[string]interface{}{},
			reason:   ReasonMissingField,
			field:    "category",
		},
		{
			name:     "agent event missing event_type",
			scope:    ScopeAgent,
			content:  "observed a failing build",
			metadata: map[string]interface{}{"agent": "builder"},
			reason:   ReasonMissingField,
			field:    "event_type",
		},
		{
			name:     "thread event valid",
			scope:    ScopeThread,
			content:  "user asked about deployment",
			metadata: map[string]interface{}{"thread_id": "t-42"},
			valid:    true,
			reason:   ValidationOK,
		},
		{
			name:     "objectives missing status",
			scope:    ScopeObjectives,
			content:  "ship the importer",
			metadata: map[string]interface{}{},
			reason:   ReasonMissingField,
			field:    "status",
		},
		{
			name:     "artifacts valid",
			scope:    ScopeArtifacts,
			content:  "generated migration script",
			metadata: map[string]interface{}{"artifact_type": "script"},
			valid:    true,
			reason:   ValidationOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NewEvent(tt.content, tt.scope, "", tt.metadata)
			v := ValidateEvent(ev, registry.Schema(tt.scope))
			assert.Equal(t, tt.valid, v.Valid)
			assert.Equal(t, tt.reason, v.Reason)
			assert.Equal(t, tt.field, v.Field)
		})
	}
}

func TestNewEvent_Defaults(t *testing.T) {
	ev := NewEvent("content", ScopeGlobal, "", nil)

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", ev.ID.String())
	assert.NotNil(t, ev.Metadata)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Nil(t, ev.Vector)
}

func TestEventPayload(t *testing.T) {
	ev := NewEvent("remember this", ScopeProject, "alpha", map[string]interface{}{"category": "decision"})
	payload := ev.Payload()

	assert.Equal(t, "remember this", payload["content"])
	assert.Equal(t, "project", payload["scope"])
	assert.Equal(t, "alpha", payload["project_id"])
	require.Contains(t, payload, "timestamp")
	require.Contains(t, payload, "metadata")
}

func TestEventPayload_NoProjectID(t *testing.T) {
	ev := NewEvent("global fact", ScopeGlobal, "", map[string]interface{}{"category": "safety"})
	payload := ev.Payload()

	assert.NotContains(t, payload, "project_id")
}
