package memory

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is one append-only memory record. Events are immutable after
// creation; there is no update or delete primitive.
type Event struct {
	ID        uuid.UUID
	Content   string
	Scope     Scope
	ProjectID string // only meaningful for ScopeProject
	Metadata  map[string]interface{}
	Timestamp time.Time
	Vector    []float32 // nil until embedded
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(content string, scope Scope, projectID string, metadata map[string]interface{}) Event {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return Event{
		ID:        uuid.New(),
		Content:   content,
		Scope:     scope,
		ProjectID: projectID,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}

// ValidationReason is the typed outcome of event validation, so callers can
// branch on the failure kind without string matching.
type ValidationReason int

const (
	ValidationOK ValidationReason = iota
	ReasonEmptyContent
	ReasonMissingField
)

// Validation is the result of checking an event against its scope's schema.
type Validation struct {
	Valid  bool
	Reason ValidationReason
	Field  string // set for ReasonMissingField
}

// ValidateEvent is a pure check: non-blank content, and every schema-required
// metadata field present. It performs no I/O.
func ValidateEvent(ev Event, schema CollectionSchema) Validation {
	if strings.TrimSpace(ev.Content) == "" {
		return Validation{Reason: ReasonEmptyContent}
	}
	for _, field := range schema.RequiredFields {
		if field == "content" {
			continue
		}
		if _, ok := ev.Metadata[field]; !ok {
			return Validation{Reason: ReasonMissingField, Field: field}
		}
	}
	return Validation{Valid: true, Reason: ValidationOK}
}

// Payload is the wire form stored alongside the vector.
func (ev Event) Payload() map[string]interface{} {
	payload := map[string]interface{}{
		"content":   ev.Content,
		"scope":     ev.Scope.String(),
		"metadata":  ev.Metadata,
		"timestamp": ev.Timestamp.Format(time.RFC3339Nano),
	}
	if ev.ProjectID != "" {
		payload["project_id"] = ev.ProjectID
	}
	return payload
}
