package port

import (
	"context"
	"time"

	"queueWatch/internal/modules/queue/domain"
)

// InsertResult counts the outcome of an insert-if-absent batch.
type InsertResult struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
}

// Add accumulates another batch result.
func (r InsertResult) Add(other InsertResult) InsertResult {
	return InsertResult{
		Inserted:   r.Inserted + other.Inserted,
		Duplicates: r.Duplicates + other.Duplicates,
	}
}

// BatchWriter writes snapshots keyed by (store_id, timestamp), skipping keys that already exist.
type BatchWriter interface {
	InsertBatch(ctx context.Context, snapshots []domain.Snapshot) (InsertResult, error)
}

// StoreStats describes the contents of the durable store.
type StoreStats struct {
	TotalRecords   int      `json:"totalRecords"`
	AvailableDates []string `json:"availableDates"`
	FirstDate      string   `json:"-"`
	LastDate       string   `json:"-"`
}

// SnapshotStore is the durable store contract. Engines are pluggable.
type SnapshotStore interface {
	BatchWriter
	// ListRange returns snapshots with from <= timestamp < to in ascending order.
	ListRange(ctx context.Context, from, to time.Time) ([]domain.Snapshot, error)
	// Stats groups record dates by the local calendar of loc.
	Stats(ctx context.Context, loc *time.Location) (StoreStats, error)
	// Latest returns nil when the store is empty.
	Latest(ctx context.Context) (*domain.Snapshot, error)
	Close() error
}
