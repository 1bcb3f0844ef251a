// Package event implements the ordered, at-most-once event bus (C13) that
// every other component publishes progress and outcome events onto.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Type is the closed set of event kinds a Bus can carry.
type Type string

const (
	TypeDocumentDetected Type = "Document-Detected"
	TypeDocumentParsed   Type = "Document-Parsed"
	TypeDocumentIndexed  Type = "Document-Indexed"
	TypeDocumentStale    Type = "Document-Stale"
	TypeDocumentDeleted  Type = "Document-Deleted"
	TypeMergeRequested   Type = "Index-MergeRequested"
	TypeMergeCompleted   Type = "Index-MergeCompleted"
	TypeQueryReceived    Type = "Query-Received"
	TypeQueryCompleted   Type = "Query-Completed"
	TypeQueryFailed      Type = "Query-Failed"
)

// Event is one frozen, ordered fact emitted onto the bus.
type Event struct {
	Sequence      int64
	CorrelationID uuid.UUID
	Type          Type
	At            time.Time
	Attrs         map[string]any
}

// New builds an Event with a fresh correlation id and the given attrs.
func New(t Type, attrs map[string]any) Event {
	return Event{CorrelationID: uuid.New(), Type: t, At: time.Now().UTC(), Attrs: attrs}
}
