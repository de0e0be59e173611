package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeIndexCompleted is emitted after a repository index run finishes.
	EventTypeIndexCompleted = "crates.index.completed"

	// EventTypeScopeCleared is emitted after a repository's documents are
	// removed from the vector store.
	EventTypeScopeCleared = "crates.scope.cleared"
)

// IndexCompletedEvent is a transport-neutral event payload for a finished
// index run.
type IndexCompletedEvent struct {
	SchemaVersion int        `json:"schema_version"`
	EventType     string     `json:"event_type"`
	EventID       string     `json:"event_id"`
	EmittedAt     time.Time  `json:"emitted_at"`
	Repo          string     `json:"repo"`
	Ref           string     `json:"ref,omitempty"`
	Stats         IndexStats `json:"stats"`
}

// IndexStats captures document counts and timing for an index run.
type IndexStats struct {
	Indexed    int   `json:"indexed"`
	Skipped    int   `json:"skipped"`
	Batches    int   `json:"batches"`
	DurationMs int64 `json:"duration_ms"`
}

// ScopeClearedEvent is a transport-neutral event payload for a cleared
// repository scope.
type ScopeClearedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	Repo          string    `json:"repo"`
}

// NewIndexCompletedEvent builds a v1 index-completed event for the repo.
func NewIndexCompletedEvent(repo, ref string, stats IndexStats) *IndexCompletedEvent {
	return &IndexCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeIndexCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Repo:          repo,
		Ref:           ref,
		Stats:         stats,
	}
}

// NewScopeClearedEvent builds a v1 scope-cleared event for the repo.
func NewScopeClearedEvent(repo string) *ScopeClearedEvent {
	return &ScopeClearedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeScopeCleared,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Repo:          repo,
	}
}
