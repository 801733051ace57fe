package port

import (
	"context"

	"queueWatch/internal/modules/queue/domain"
)

// LogStats summarizes the local daily log directory.
type LogStats struct {
	Files      int
	TotalBytes int64
	FirstDate  string
	LastDate   string
}

// SnapshotLog is the read side of the local daily log used by migration and tooling.
type SnapshotLog interface {
	ListDays() ([]string, error)
	// ScanDay visits each parsable record of date in append order and returns
	// the number of lines that could not be parsed.
	ScanDay(ctx context.Context, date string, visit func(domain.Snapshot) error) (int, error)
}
