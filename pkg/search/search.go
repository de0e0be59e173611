// Package search embeds queries and ranks indexed documents by cosine
// distance. It is shared by the CLI, the REST API endpoint, and the MCP
// server tool.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/crates/pkg/embeddings"
	"github.com/papercomputeco/crates/pkg/utils"
	"github.com/papercomputeco/crates/pkg/vector"
)

// DefaultLimit is the number of hits returned when the caller does not ask
// for a specific count.
const DefaultLimit = 5

// previewLength is how many leading bytes of content a hit preview keeps.
const previewLength = 50

// Result represents a single search hit.
type Result struct {
	ID         string  `json:"id"`
	Repo       string  `json:"repo"`
	Path       string  `json:"path"`
	Content    string  `json:"content"`
	Distance   float32 `json:"distance"`
	Similarity float32 `json:"similarity"`
	Preview    string  `json:"preview"`
}

// Engine runs semantic queries against the vector store.
type Engine struct {
	embedder embeddings.Embedder
	store    vector.Driver
	logger   *slog.Logger
}

// NewEngine creates an Engine from its collaborators.
func NewEngine(embedder embeddings.Embedder, store vector.Driver, logger *slog.Logger) *Engine {
	return &Engine{
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Search embeds the query and returns the limit nearest documents in
// ascending distance order. A non-empty scope restricts hits to that repo.
// Limit values below one select DefaultLimit. An embedder failure is an
// error; an empty index is an empty result.
func (e *Engine) Search(ctx context.Context, query, scope string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	e.logger.Debug("search request",
		"query", query,
		"scope", scope,
		"limit", limit,
	)

	queryEmbedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := e.store.Query(ctx, queryEmbedding, limit, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, buildResult(hit))
	}

	return results, nil
}

// buildResult converts a vector query hit into a Result. Similarity is a
// display score; Distance remains the ranking key.
func buildResult(hit vector.QueryResult) Result {
	return Result{
		ID:         hit.ID,
		Repo:       hit.Repo,
		Path:       hit.Path,
		Content:    hit.Content,
		Distance:   hit.Distance,
		Similarity: hit.Similarity(),
		Preview:    utils.Truncate(hit.Content, previewLength),
	}
}
