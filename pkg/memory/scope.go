package memory

import "fmt"

// Scope is a named partition of memory. Every scope maps to exactly one
// backing collection, except ScopeProject which is parameterized by a
// project identifier.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeProject
	ScopeAgent
	ScopeThread
	ScopeObjectives
	ScopeArtifacts
)

// Scopes lists every scope, in declaration order.
func Scopes() []Scope {
	return []Scope{
		ScopeGlobal,
		ScopeProject,
		ScopeAgent,
		ScopeThread,
		ScopeObjectives,
		ScopeArtifacts,
	}
}

// String returns the canonical lowercase name of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeProject:
		return "project"
	case ScopeAgent:
		return "agent"
	case ScopeThread:
		return "thread"
	case ScopeObjectives:
		return "objectives"
	case ScopeArtifacts:
		return "artifacts"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// RequiresProject reports whether the scope needs a project id to resolve
// its collection name.
func (s Scope) RequiresProject() bool {
	return s == ScopeProject
}

// ParseScope converts a canonical scope name back to a Scope.
func ParseScope(name string) (Scope, error) {
	switch name {
	case "global":
		return ScopeGlobal, nil
	case "project":
		return ScopeProject, nil
	case "agent":
		return ScopeAgent, nil
	case "thread":
		return ScopeThread, nil
	case "objectives":
		return ScopeObjectives, nil
	case "artifacts":
		return ScopeArtifacts, nil
	default:
		return 0, fmt.Errorf("unknown memory scope %q", name)
	}
}
