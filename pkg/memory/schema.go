package memory

import (
	"github.com/hannesnortje/agentmem/pkg/vectorindex"
)

// DefaultNamespace prefixes every collection name. Keeping the prefix fixed
// across processes is what makes collection names interoperable.
const DefaultNamespace = "agentmem"

// CollectionSchema is the static, immutable definition of one scope's
// backing collection. Schemas are fixed at process start and never mutated.
type CollectionSchema struct {
	Scope          Scope
	VectorSize     int
	Distance       vectorindex.Distance
	Description    string
	RequiredFields []string // metadata fields an event must carry
	IndexedFields  []string // payload fields worth indexing server-side
}

// SchemaRegistry resolves per-scope schemas. The vector size comes from the
// embedding provider and is identical across scopes.
type SchemaRegistry struct {
	vectorSize int
}

// NewSchemaRegistry creates a registry for the given vector dimensionality.
func NewSchemaRegistry(vectorSize int) *SchemaRegistry {
	return &SchemaRegistry{vectorSize: vectorSize}
}

// VectorSize returns the configured vector dimensionality.
func (r *SchemaRegistry) VectorSize() int {
	return r.vectorSize
}

// Schema returns the schema for a scope. The switch is exhaustive: adding a
// scope without a schema fails the default branch in tests immediately.
func (r *SchemaRegistry) Schema(scope Scope) CollectionSchema {
	base := CollectionSchema{
		Scope:      scope,
		VectorSize: r.vectorSize,
		Distance:   vectorindex.DistanceCosine,
	}

	switch scope {
	case ScopeGlobal:
		base.Description = "Cross-project knowledge shared by all agents"
		base.RequiredFields = []string{"category"}
		base.IndexedFields = []string{"category"}
	case ScopeProject:
		base.Description = "Per-project context and decisions"
		base.RequiredFields = []string{"category"}
		base.IndexedFields = []string{"category"}
	case ScopeAgent:
		base.Description = "Per-agent observations and learnings"
		base.RequiredFields = []string{"agent", "event_type"}
		base.IndexedFields = []string{"agent", "event_type"}
	case ScopeThread:
		base.Description = "Conversation-thread history"
		base.RequiredFields = []string{"thread_id"}
		base.IndexedFields = []string{"thread_id"}
	case ScopeObjectives:
		base.Description = "Objectives and their progress"
		base.RequiredFields = []string{"status"}
		base.IndexedFields = []string{"status"}
	case ScopeArtifacts:
		base.Description = "Produced artifacts and references"
		base.RequiredFields = []string{"artifact_type"}
		base.IndexedFields = []string{"artifact_type"}
	}

	return base
}
