package eventstream

import "context"

// Publisher publishes index lifecycle events to an event stream backend.
type Publisher interface {
	PublishIndexCompleted(ctx context.Context, event *IndexCompletedEvent) error
	PublishScopeCleared(ctx context.Context, event *ScopeClearedEvent) error
	Close() error
}
