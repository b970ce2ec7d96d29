package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingProjectID is returned when the project scope is used
	// without a project identifier.
	ErrMissingProjectID = errors.New("project scope requires a project id")
)

// ValidationError is returned when an event fails schema validation. It is
// always raised before any network call.
type ValidationError struct {
	Scope      Scope
	Validation Validation
}

func (e *ValidationError) Error() string {
	switch e.Validation.Reason {
	case ReasonEmptyContent:
		return fmt.Sprintf("invalid event for scope %s: content is empty", e.Scope)
	case ReasonMissingField:
		return fmt.Sprintf("invalid event for scope %s: required metadata field %q is missing", e.Scope, e.Validation.Field)
	default:
		return fmt.Sprintf("invalid event for scope %s", e.Scope)
	}
}

// DimensionError is returned when a caller-supplied vector does not match
// the scope's configured vector size. Vectors are never truncated or padded.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: collection expects %d, got %d", e.Want, e.Got)
}

// TransportError wraps a failure talking to the vector index or the
// embedding provider, carrying enough context for diagnosis.
type TransportError struct {
	Op         string // logical operation, e.g. "upsert", "create_collection"
	Collection string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("%s on collection %q: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
