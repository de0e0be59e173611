package jobs

import "time"

// Status is the lifecycle state of an index job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Report carries the counters of a finished index job. Skipped covers both
// files skipped during the fetch and files skipped by the pipeline.
type Report struct {
	Indexed    int   `json:"indexed"`
	Skipped    int   `json:"skipped"`
	Batches    int   `json:"batches"`
	DurationMs int64 `json:"duration_ms"`
}

// Job tracks one queued repository index run.
type Job struct {
	ID          string     `json:"job_id"`
	Repo        string     `json:"repo"`
	Ref         string     `json:"ref,omitempty"`
	Status      Status     `json:"status"`
	QueuedAt    time.Time  `json:"queued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Report      *Report    `json:"report,omitempty"`
	Error       string     `json:"error,omitempty"`
}
