package testutils

import (
	"context"
	"errors"

	"github.com/papercomputeco/crates/pkg/vector"
)

// MockVectorDriver is a test vector driver that records calls and returns
// configurable results.
type MockVectorDriver struct {
	// Documents accumulates every document passed to Upsert.
	Documents []vector.Document

	// BatchSizes records the size of each Upsert call in order.
	BatchSizes []int

	// Results is returned by Query, truncated to the requested limit.
	Results []vector.QueryResult

	// LastQueryLimit and LastQueryScope capture the most recent Query call.
	LastQueryLimit int
	LastQueryScope string

	// DeletedScopes records every scope passed to DeleteScope.
	DeletedScopes []string

	// FailUpsert causes Upsert to return an error.
	FailUpsert bool

	// FailQuery causes Query to return an error.
	FailQuery bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Documents: make([]vector.Document, 0),
		Results:   make([]vector.QueryResult, 0),
	}
}

var _ vector.Driver = (*MockVectorDriver)(nil)

func (m *MockVectorDriver) Upsert(_ context.Context, docs []vector.Document) error {
	if m.FailUpsert {
		return errors.New("mock upsert failure")
	}

	m.Documents = append(m.Documents, docs...)
	m.BatchSizes = append(m.BatchSizes, len(docs))
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, limit int, scope string) ([]vector.QueryResult, error) {
	m.LastQueryLimit = limit
	m.LastQueryScope = scope

	if m.FailQuery {
		return nil, errors.New("mock query failure")
	}

	if len(m.Results) > limit {
		return m.Results[:limit], nil
	}
	return m.Results, nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	var out []vector.Document
	for _, doc := range m.Documents {
		for _, id := range ids {
			if doc.ID == id {
				out = append(out, doc)
				break
			}
		}
	}
	return out, nil
}

func (m *MockVectorDriver) DeleteScope(_ context.Context, repo string) error {
	m.DeletedScopes = append(m.DeletedScopes, repo)

	var kept []vector.Document
	for _, doc := range m.Documents {
		if doc.Repo != repo {
			kept = append(kept, doc)
		}
	}
	m.Documents = kept
	return nil
}

func (m *MockVectorDriver) CountScope(_ context.Context, repo string) (int, error) {
	if repo == "" {
		return len(m.Documents), nil
	}

	n := 0
	for _, doc := range m.Documents {
		if doc.Repo == repo {
			n++
		}
	}
	return n, nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
