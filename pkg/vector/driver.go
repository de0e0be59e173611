// Package vector provides interfaces and implementations for vector storage of
// indexed repository files.
package vector

import "context"

// Document represents one indexed file with its embedding and metadata.
type Document struct {
	// ID is the stable identifier for the document, derived from
	// (Repo, Path) so re-indexing overwrites instead of duplicating.
	ID string

	// Repo is the repository tag the document belongs to. It is the
	// scoping key for queries and the bulk-deletion key.
	Repo string

	// Path is the file path within the repository.
	Path string

	// Content is the raw UTF-8 text of the file at index time.
	Content string

	// Embedding is the vector representation of Content, produced at
	// index time and never recomputed at query time.
	Embedding []float32
}

// QueryResult represents a search hit.
type QueryResult struct {
	Document

	// Distance is the cosine distance to the query embedding
	// (lower = more similar). It is the canonical ranking quantity.
	Distance float32
}

// Similarity converts the hit's distance into a display score in [0, 1].
// Presentation only; Distance remains the ranking key.
func (r QueryResult) Similarity() float32 {
	return 1 - r.Distance
}

// Driver handles storage and retrieval of document embeddings.
type Driver interface {
	// Upsert stores documents with their embeddings. A document with an
	// existing ID replaces the stored one. Partial application on failure
	// is acceptable, but a single ID must never map to two records.
	Upsert(ctx context.Context, docs []Document) error

	// Query finds the limit nearest documents to the given embedding,
	// ordered by ascending cosine distance. A non-empty scope restricts
	// results to documents whose Repo equals scope; an empty scope ranks
	// across every repository.
	Query(ctx context.Context, embedding []float32, limit int, scope string) ([]QueryResult, error)

	// Get retrieves documents by their IDs. Unknown IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// DeleteScope removes every document tagged with the given repo.
	// Deleting an absent scope is a no-op, not an error.
	DeleteScope(ctx context.Context, repo string) error

	// CountScope reports how many documents carry the given repo tag.
	// An empty repo counts the whole store.
	CountScope(ctx context.Context, repo string) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}
