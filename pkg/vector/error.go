package vector

import "errors"

var (
	// ErrEmbedding wraps failures from the embedding gateway. During an
	// index run it marks a per-file skip; on a query path it is fatal.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection wraps failures to reach or initialize a vector store
	// backend. Drivers return it from their constructors so callers can
	// tell an unreachable store from a bad query.
	ErrConnection = errors.New("vector store connection failed")
)
