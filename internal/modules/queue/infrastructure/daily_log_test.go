package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
)

var testZone = time.FixedZone("UTC+8", 8*3600)

func testSnapshot(at time.Time, lineup int) domain.Snapshot {
	return domain.Snapshot{
		Timestamp:    at.UTC().Truncate(time.Millisecond),
		StoreID:      19,
		StoreName:    "Target",
		TotalLineup:  lineup,
		QueueDetails: domain.QueueDetails{TypeA: lineup},
	}
}

func TestDailyLogAppendAndRead(t *testing.T) {
	t.Parallel()

	log := NewDailyLog(filepath.Join(t.TempDir(), "snapshots"), testZone)
	ctx := context.Background()
	base := time.Date(2026, 1, 12, 12, 0, 0, 0, testZone)

	for i := 0; i < 3; i++ {
		if err := log.Append(ctx, testSnapshot(base.Add(time.Duration(i)*10*time.Second), i)); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	got, err := log.ReadDay(ctx, "2026-01-12")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i, s := range got {
		if s.TotalLineup != i {
			t.Fatalf("expected append order, record %d has lineup %d", i, s.TotalLineup)
		}
	}

	empty, err := log.ReadDay(ctx, "2026-01-11")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty missing day, got %d records, %v", len(empty), err)
	}
}

func TestDailyLogSplitsByLocalDay(t *testing.T) {
	t.Parallel()

	log := NewDailyLog(t.TempDir(), testZone)
	ctx := context.Background()
	late := time.Date(2026, 1, 12, 23, 59, 59, 0, testZone)
	early := time.Date(2026, 1, 13, 0, 0, 1, 0, testZone)

	if err := log.Append(ctx, testSnapshot(late, 1)); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := log.Append(ctx, testSnapshot(early, 2)); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	days, err := log.ListDays()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(days) != 2 || days[0] != "2026-01-12" || days[1] != "2026-01-13" {
		t.Fatalf("unexpected days %v", days)
	}

	stats, err := log.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Files != 2 || stats.TotalBytes == 0 || stats.FirstDate != "2026-01-12" || stats.LastDate != "2026-01-13" {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestDailyLogRecoversFromTruncatedTail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	log := NewDailyLog(dir, testZone)
	ctx := context.Background()
	at := time.Date(2026, 1, 12, 12, 0, 0, 0, testZone)

	if err := log.Append(ctx, testSnapshot(at, 1)); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	file, err := os.OpenFile(filepath.Join(dir, "2026-01-12.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := file.WriteString(`{"timestamp":"2026-01-12T04:00:10.000Z","store_id":19,"sto`); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	_ = file.Close()

	if err := log.Append(ctx, testSnapshot(at.Add(20*time.Second), 3)); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	var got []int
	skipped, err := log.ScanDay(ctx, "2026-01-12", func(s domain.Snapshot) error {
		got = append(got, s.TotalLineup)
		return nil
	})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("expected the torn line to be skipped, got %d", skipped)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("expected records [1 3], got %v", got)
	}
}

func TestDailyLogConcurrentAppends(t *testing.T) {
	t.Parallel()

	log := NewDailyLog(t.TempDir(), testZone)
	ctx := context.Background()
	base := time.Date(2026, 1, 12, 12, 0, 0, 0, testZone)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := log.Append(ctx, testSnapshot(base.Add(time.Duration(i)*time.Second), i)); err != nil {
				t.Errorf("append %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	got, err := log.ReadDay(ctx, "2026-01-12")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("expected 50 intact records, got %d", len(got))
	}
}

func TestDailyLogErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	log := NewDailyLog(filepath.Join(blocker, "snapshots"), testZone)

	err := log.Append(context.Background(), testSnapshot(time.Now(), 1))
	if !errors.Is(err, port.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	if _, err := log.ReadDay(context.Background(), "../../etc/passwd"); !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	days, err := NewDailyLog(filepath.Join(dir, "missing"), testZone).ListDays()
	if err != nil || len(days) != 0 {
		t.Fatalf("expected no days for a missing directory, got %v, %v", days, err)
	}
}

func TestDailyLogIgnoresForeignFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"notes.txt", "2026-13-01.jsonl", "backup-2026-01-12.jsonl"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}\n"), 0o644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}
	days, err := NewDailyLog(dir, testZone).ListDays()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(days) != 0 {
		t.Fatalf("expected foreign files to be ignored, got %s", strings.Join(days, ","))
	}
}
