// Package memory provides an in-memory vector driver using brute-force
// cosine distance. It backs tests and runs without any external store;
// everything is lost when the process exits.
package memory

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/papercomputeco/crates/pkg/vector"
)

// Driver implements vector.Driver over a mutex-guarded map.
type Driver struct {
	mu     sync.RWMutex
	docs   map[string]vector.Document
	logger *slog.Logger
}

// NewDriver creates an empty in-memory driver.
func NewDriver(logger *slog.Logger) *Driver {
	return &Driver{
		docs:   make(map[string]vector.Document),
		logger: logger,
	}
}

var _ vector.Driver = (*Driver)(nil)

// Upsert stores the documents, replacing any existing entry per ID.
func (d *Driver) Upsert(_ context.Context, docs []vector.Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, doc := range docs {
		d.docs[doc.ID] = doc
	}

	return nil
}

// Query scans every stored document, computes cosine distance, and returns
// the limit nearest in ascending-distance order.
func (d *Driver) Query(_ context.Context, embedding []float32, limit int, scope string) ([]vector.QueryResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]vector.QueryResult, 0, len(d.docs))
	for _, doc := range d.docs {
		if scope != "" && doc.Repo != scope {
			continue
		}

		results = append(results, vector.QueryResult{
			Document: doc,
			Distance: cosineDistance(embedding, doc.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Get retrieves documents by ID, skipping unknown IDs.
func (d *Driver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	docs := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := d.docs[id]; ok {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

// DeleteScope removes every document tagged with repo. Absent scopes are a no-op.
func (d *Driver) DeleteScope(_ context.Context, repo string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, doc := range d.docs {
		if doc.Repo == repo {
			delete(d.docs, id)
		}
	}

	return nil
}

// CountScope counts documents tagged with repo, or everything when repo is empty.
func (d *Driver) CountScope(_ context.Context, repo string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if repo == "" {
		return len(d.docs), nil
	}

	count := 0
	for _, doc := range d.docs {
		if doc.Repo == repo {
			count++
		}
	}

	return count, nil
}

// Close drops all stored documents.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.docs = make(map[string]vector.Document)

	return nil
}

// cosineDistance returns 1 - cosine similarity. Zero-norm vectors have no
// direction, so they are treated as maximally distant.
func cosineDistance(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	return float32(1 - sim)
}
