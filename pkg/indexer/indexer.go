// Package indexer turns repository file contents into embedded documents
// in the vector store.
package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/papercomputeco/crates/pkg/docid"
	"github.com/papercomputeco/crates/pkg/embeddings"
	"github.com/papercomputeco/crates/pkg/eventstream"
	"github.com/papercomputeco/crates/pkg/eventstream/nop"
	"github.com/papercomputeco/crates/pkg/vector"
)

// DefaultBatchSize bounds how many documents are flushed per upsert when no
// batch size is configured.
const DefaultBatchSize = 64

// Options configures a Session.
type Options struct {
	Embedder embeddings.Embedder
	Store    vector.Driver

	// Publisher receives an index-completed event after each successful
	// run. Nil selects the no-op publisher.
	Publisher eventstream.Publisher

	// BatchSize is the number of documents flushed per upsert. Values
	// below one select DefaultBatchSize.
	BatchSize int

	// MaxFileBytes skips files larger than this. Values below one
	// disable the size check.
	MaxFileBytes int64

	Logger *slog.Logger
}

// Session holds the collaborators for indexing runs. It carries no per-run
// state and may be reused for sequential runs.
type Session struct {
	embedder     embeddings.Embedder
	store        vector.Driver
	publisher    eventstream.Publisher
	batchSize    int
	maxFileBytes int64
	logger       *slog.Logger
}

// NewSession creates a Session from the given options.
func NewSession(opts Options) *Session {
	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	publisher := opts.Publisher
	if publisher == nil {
		publisher = nop.NewPublisher()
	}

	return &Session{
		embedder:     opts.Embedder,
		store:        opts.Store,
		publisher:    publisher,
		batchSize:    batchSize,
		maxFileBytes: opts.MaxFileBytes,
		logger:       opts.Logger,
	}
}

// Run embeds and stores the given files under the repo scope. Document IDs
// derive from (repo, path), so re-running over the same paths overwrites
// instead of duplicating. Paths that disappeared since a previous run are
// not pruned; clearing the scope first is the way to drop them.
//
// Oversized, undecodable, and unembeddable files are skipped with a warning
// and counted in the report. A failed batch upsert aborts the run.
func (s *Session) Run(ctx context.Context, repoName string, files map[string][]byte) (*Report, error) {
	if repoName == "" {
		return nil, errors.New("repo name is required")
	}

	start := time.Now()
	report := &Report{Repo: repoName}

	// Walk paths in sorted order so batch boundaries and logs are
	// reproducible across runs.
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	batch := make([]vector.Document, 0, s.batchSize)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content := files[path]

		if s.maxFileBytes > 0 && int64(len(content)) > s.maxFileBytes {
			s.logger.Warn("skipping oversized file", "path", path, "bytes", len(content))
			report.Skipped++
			continue
		}

		if bytes.IndexByte(content, 0) >= 0 || !utf8.Valid(content) {
			s.logger.Warn("skipping undecodable file", "path", path)
			report.Skipped++
			continue
		}

		text := string(content)

		embedding, err := s.embedder.Embed(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			s.logger.Warn("skipping file that failed to embed", "path", path, "error", err)
			report.Skipped++
			continue
		}

		batch = append(batch, vector.Document{
			ID:        docid.Derive(repoName, path),
			Repo:      repoName,
			Path:      path,
			Content:   text,
			Embedding: embedding,
		})

		if len(batch) >= s.batchSize {
			if err := s.flush(ctx, report, batch); err != nil {
				return nil, err
			}
			batch = make([]vector.Document, 0, s.batchSize)
		}
	}

	if len(batch) > 0 {
		if err := s.flush(ctx, report, batch); err != nil {
			return nil, err
		}
	}

	report.Duration = time.Since(start)

	s.publishCompleted(ctx, report)

	return report, nil
}

func (s *Session) flush(ctx context.Context, report *Report, batch []vector.Document) error {
	if err := s.store.Upsert(ctx, batch); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}

	report.Indexed += len(batch)
	report.Batches++
	return nil
}

// publishCompleted emits the index-completed event. Publish failures are
// logged and never fail the run.
func (s *Session) publishCompleted(ctx context.Context, report *Report) {
	event := eventstream.NewIndexCompletedEvent(report.Repo, "", eventstream.IndexStats{
		Indexed:    report.Indexed,
		Skipped:    report.Skipped,
		Batches:    report.Batches,
		DurationMs: report.Duration.Milliseconds(),
	})

	if err := s.publisher.PublishIndexCompleted(ctx, event); err != nil {
		s.logger.Warn("failed to publish index event", "repo", report.Repo, "error", err)
	}
}
