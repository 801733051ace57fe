package usecase

import (
	"context"
	"log/slog"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
)

// IngestUseCase is the server-side write path shared by HTTP and the broker consumer.
type IngestUseCase struct {
	store       port.BatchWriter
	broadcaster port.Broadcaster
}

func NewIngestUseCase(store port.BatchWriter, broadcaster port.Broadcaster) *IngestUseCase {
	return &IngestUseCase{store: store, broadcaster: broadcaster}
}

// Ingest stores one snapshot and announces it to live subscribers when it was new.
// A duplicate is not an error.
func (uc *IngestUseCase) Ingest(ctx context.Context, snapshot domain.Snapshot) (bool, error) {
	if err := snapshot.Validate(); err != nil {
		return false, err
	}
	result, err := uc.store.InsertBatch(ctx, []domain.Snapshot{snapshot})
	if err != nil {
		return false, err
	}
	if result.Inserted == 0 {
		slog.Debug("duplicate snapshot ignored", slog.Int64("storeId", snapshot.StoreID), slog.String("timestamp", domain.FormatTimestamp(snapshot.Timestamp)))
		return false, nil
	}
	if uc.broadcaster != nil {
		uc.broadcaster.Broadcast(ctx, domain.NewSnapshotMessage(snapshot))
	}
	return true, nil
}

// IngestBatch stores snapshots in one insert-if-absent batch. Backfilled
// history is not broadcast.
func (uc *IngestUseCase) IngestBatch(ctx context.Context, snapshots []domain.Snapshot) (port.InsertResult, error) {
	for _, snapshot := range snapshots {
		if err := snapshot.Validate(); err != nil {
			return port.InsertResult{}, err
		}
	}
	if len(snapshots) == 0 {
		return port.InsertResult{}, nil
	}
	return uc.store.InsertBatch(ctx, snapshots)
}
