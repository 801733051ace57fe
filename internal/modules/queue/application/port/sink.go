package port

import (
	"context"

	"queueWatch/internal/modules/queue/domain"
)

// SnapshotSink receives every collected snapshot. Implementations must be safe
// to call from a goroutine other than the scheduler's.
type SnapshotSink interface {
	Write(ctx context.Context, snapshot domain.Snapshot) error
}

// SinkFunc adapts a function to SnapshotSink.
type SinkFunc func(ctx context.Context, snapshot domain.Snapshot) error

func (f SinkFunc) Write(ctx context.Context, snapshot domain.Snapshot) error {
	return f(ctx, snapshot)
}

// NamedSink labels a sink for logs and per-sink counters.
type NamedSink struct {
	Name string
	Sink SnapshotSink
}
