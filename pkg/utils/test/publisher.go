package testutils

import (
	"context"
	"errors"

	"github.com/papercomputeco/crates/pkg/eventstream"
)

// MockPublisher is a test eventstream publisher that records published
// events and returns configurable errors.
type MockPublisher struct {
	// IndexEvents accumulates all published index-completed events.
	IndexEvents []*eventstream.IndexCompletedEvent

	// ScopeEvents accumulates all published scope-cleared events.
	ScopeEvents []*eventstream.ScopeClearedEvent

	// FailPublish causes both publish methods to return an error.
	FailPublish bool

	// Closed reports whether Close was called.
	Closed bool
}

// NewMockPublisher creates a new mock eventstream publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

var _ eventstream.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) PublishIndexCompleted(_ context.Context, event *eventstream.IndexCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	if m.FailPublish {
		return errors.New("mock publish failure")
	}

	m.IndexEvents = append(m.IndexEvents, event)
	return nil
}

func (m *MockPublisher) PublishScopeCleared(_ context.Context, event *eventstream.ScopeClearedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	if m.FailPublish {
		return errors.New("mock publish failure")
	}

	m.ScopeEvents = append(m.ScopeEvents, event)
	return nil
}

func (m *MockPublisher) Close() error {
	m.Closed = true
	return nil
}
