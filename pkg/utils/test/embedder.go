package testutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/crates/pkg/embeddings"
)

// MockEmbedder is a test embedder with canned vectors per input text.
// Unmapped text gets a fixed default so pipeline tests don't need a
// vector for every file.
type MockEmbedder struct {
	Embeddings map[string][]float32

	// Calls records every embedded text in order.
	Calls []string

	// FailOn causes Embed to return an error when the input text matches
	FailOn string
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
	}
}

var _ embeddings.Embedder = (*MockEmbedder)(nil)

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.Calls = append(m.Calls, text)

	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	// Default embedding for any unmapped text
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}
