package indexer

import (
	"fmt"
	"time"
)

// Report contains statistics from an indexing run.
type Report struct {
	Repo     string
	Indexed  int
	Skipped  int
	Batches  int
	Duration time.Duration
}

// Summary returns a human-readable summary of the indexing run.
func (r *Report) Summary() string {
	return fmt.Sprintf(
		"Indexed %s: %d documents in %d batches, %d skipped (took %s)",
		r.Repo, r.Indexed, r.Batches, r.Skipped,
		r.Duration.Round(time.Millisecond),
	)
}
