package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"queueWatch/internal/modules/queue/domain"
)

func TestIngestBroadcastsOnlyNewSnapshots(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	broadcaster := &recordingBroadcaster{}
	ingest := NewIngestUseCase(store, broadcaster)
	snapshot := testSnapshot(time.Date(2026, 1, 12, 12, 0, 0, 0, testZone), 7)

	inserted, err := ingest.Ingest(context.Background(), snapshot)
	if err != nil || !inserted {
		t.Fatalf("expected insert, got %v, %v", inserted, err)
	}
	inserted, err = ingest.Ingest(context.Background(), snapshot)
	if err != nil || inserted {
		t.Fatalf("expected duplicate to be accepted silently, got %v, %v", inserted, err)
	}
	if broadcaster.count() != 1 {
		t.Fatalf("expected one broadcast, got %d", broadcaster.count())
	}
}

func TestIngestValidates(t *testing.T) {
	t.Parallel()

	ingest := NewIngestUseCase(newMemoryStore(), nil)
	invalid := testSnapshot(time.Now(), 1)
	invalid.StoreID = 0
	if _, err := ingest.Ingest(context.Background(), invalid); !errors.Is(err, domain.ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
	if _, err := ingest.IngestBatch(context.Background(), []domain.Snapshot{testSnapshot(time.Now(), 1), invalid}); !errors.Is(err, domain.ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
}

func TestIngestBatch(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	broadcaster := &recordingBroadcaster{}
	ingest := NewIngestUseCase(store, broadcaster)
	at := time.Date(2026, 1, 12, 12, 0, 0, 0, testZone)

	result, err := ingest.IngestBatch(context.Background(), []domain.Snapshot{testSnapshot(at, 1), testSnapshot(at, 1), testSnapshot(at.Add(time.Second), 2)})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if result.Inserted != 2 || result.Duplicates != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if broadcaster.count() != 0 {
		t.Fatal("expected batches not to be broadcast")
	}
}
