package usecase

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"queueWatch/internal/modules/queue/domain"
)

type memoryLog struct {
	days    map[string][]domain.Snapshot
	skipped map[string]int
}

func (l *memoryLog) ListDays() ([]string, error) {
	days := make([]string, 0, len(l.days))
	for day := range l.days {
		days = append(days, day)
	}
	sort.Strings(days)
	return days, nil
}

func (l *memoryLog) ScanDay(ctx context.Context, date string, visit func(domain.Snapshot) error) (int, error) {
	for _, s := range l.days[date] {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := visit(s); err != nil {
			return 0, err
		}
	}
	return l.skipped[date], nil
}

func buildLog(perDay map[string]int) *memoryLog {
	log := &memoryLog{days: map[string][]domain.Snapshot{}, skipped: map[string]int{}}
	for day, n := range perDay {
		start, _, _ := domain.DayBounds(day, testZone)
		for i := 0; i < n; i++ {
			log.days[day] = append(log.days[day], testSnapshot(start.Add(time.Duration(i)*10*time.Second+11*time.Hour), i))
		}
	}
	return log
}

func TestMigrationIsIdempotent(t *testing.T) {
	t.Parallel()

	log := buildLog(map[string]int{"2026-01-11": 130, "2026-01-12": 120})
	store := newMemoryStore()
	migration := NewMigration(log, store, 0)

	first, err := migration.Run(context.Background())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if first.Days != 2 || first.Read != 250 || first.Inserted != 250 || first.Duplicates != 0 {
		t.Fatalf("unexpected first report %+v", first)
	}
	if first.RunID == "" {
		t.Fatal("expected a run id")
	}
	if store.calls != 4 {
		t.Fatalf("expected batches of 100 per day (4 calls), got %d", store.calls)
	}

	second, err := migration.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.Inserted != 0 || second.Duplicates != 250 {
		t.Fatalf("expected a no-op rerun, got %+v", second)
	}
	if second.RunID == first.RunID {
		t.Fatal("expected a fresh run id per run")
	}
	if store.count() != 250 {
		t.Fatalf("expected 250 stored snapshots, got %d", store.count())
	}
}

func TestMigrationCountsFailuresAndContinues(t *testing.T) {
	t.Parallel()

	log := buildLog(map[string]int{"2026-01-11": 5, "2026-01-12": 3})
	log.skipped["2026-01-12"] = 2
	store := newMemoryStore()
	store.failNext = 1

	report, err := NewMigration(log, store, 100).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.Failed != 5 || report.Inserted != 3 || report.Malformed != 2 || report.Read != 8 {
		t.Fatalf("unexpected report %+v", report)
	}

	// A rerun picks up the batch that failed.
	report, err = NewMigration(log, store, 100).Run(context.Background())
	if err != nil {
		t.Fatalf("rerun failed: %v", err)
	}
	if report.Inserted != 5 || report.Duplicates != 3 {
		t.Fatalf("unexpected rerun report %+v", report)
	}
}

func TestMigrationAbortsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMigration(buildLog(map[string]int{"2026-01-12": 3}), newMemoryStore(), 100).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

func TestMigrationOverlapsWithIngest(t *testing.T) {
	t.Parallel()

	log := buildLog(map[string]int{"2026-01-12": 200})
	store := newMemoryStore()
	ingest := NewIngestUseCase(store, nil)

	done := make(chan error, 1)
	go func() {
		for _, s := range log.days["2026-01-12"] {
			if _, err := ingest.Ingest(context.Background(), s); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	report, err := NewMigration(log, store, 50).Run(context.Background())
	if err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if report.Inserted+report.Duplicates != 200 {
		t.Fatalf("expected every record accounted for, got %+v", report)
	}
	if store.count() != 200 {
		t.Fatalf("expected exactly one copy per key, got %d", store.count())
	}
}
