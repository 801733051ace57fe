package infrastructure

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
)

func TestSnapshotRowConversion(t *testing.T) {
	t.Parallel()

	snapshot := testSnapshot(time.Date(2026, 1, 12, 12, 0, 0, 0, testZone), 37)
	snapshot.QueueDetails = domain.QueueDetails{TypeA: 5, TypeB: 10, TypeC: 2}
	snapshot.RawData = json.RawMessage(`{"id":19,"lineup":37}`)

	row, err := toRow(snapshot)
	if err != nil {
		t.Fatalf("toRow failed: %v", err)
	}
	if row.Timestamp.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp column, got %s", row.Timestamp.Location())
	}
	back, err := fromRow(row)
	if err != nil {
		t.Fatalf("fromRow failed: %v", err)
	}
	if diff := cmp.Diff(snapshot, back); diff != "" {
		t.Fatalf("conversion mismatch (-want +got):\n%s", diff)
	}

	snapshot.RawData = nil
	row, err = toRow(snapshot)
	if err != nil {
		t.Fatalf("toRow failed: %v", err)
	}
	if row.RawData != nil {
		t.Fatalf("expected NULL raw data, got %s", row.RawData)
	}
}

func TestZoneName(t *testing.T) {
	t.Parallel()

	if got := zoneName(time.Local); got != "UTC" {
		t.Fatalf("expected Local to map to UTC, got %s", got)
	}
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	if got := zoneName(loc); got != "Asia/Shanghai" {
		t.Fatalf("expected Asia/Shanghai, got %s", got)
	}
}

// TestPostgresStoreIntegration runs against a live database when QUEUEWATCH_TEST_POSTGRES_DSN is set.
func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("QUEUEWATCH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("QUEUEWATCH_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := OpenPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.db.Exec("DELETE FROM snapshots WHERE store_id = ?", 990019).Error; err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	base := time.Date(2026, 1, 12, 12, 0, 0, 0, testZone)
	first := testSnapshot(base, 1)
	first.StoreID = 990019
	second := testSnapshot(base.Add(10*time.Second), 2)
	second.StoreID = 990019

	result, err := store.InsertBatch(ctx, []domain.Snapshot{first, second})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if result != (port.InsertResult{Inserted: 2}) {
		t.Fatalf("unexpected result %+v", result)
	}
	result, err = store.InsertBatch(ctx, []domain.Snapshot{first, second})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if result != (port.InsertResult{Duplicates: 2}) {
		t.Fatalf("unexpected replay result %+v", result)
	}

	got, err := store.ListRange(ctx, base, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("expected inserted snapshots to be listed, got %d", len(got))
	}
}
