// Package embeddings defines the text embedding capability used by the
// indexing pipeline and the query engine.
package embeddings

import "context"

// Embedder converts text into fixed-dimension vectors. The indexing
// pipeline treats a failed Embed as a per-file skip; the query engine
// treats it as fatal.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
