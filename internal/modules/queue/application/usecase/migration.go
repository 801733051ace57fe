package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
)

const DefaultBatchSize = 100

// MigrationReport counts what a backfill run did. Running it twice over the
// same log yields Inserted == 0 the second time.
type MigrationReport struct {
	RunID      string
	Days       int
	Read       int
	Inserted   int
	Duplicates int
	Malformed  int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Migration replays the local daily log into a durable store.
type Migration struct {
	log       port.SnapshotLog
	target    port.BatchWriter
	batchSize int
	now       func() time.Time
}

func NewMigration(log port.SnapshotLog, target port.BatchWriter, batchSize int) *Migration {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Migration{log: log, target: target, batchSize: batchSize, now: time.Now}
}

// Run walks every day in ascending order. Only context cancellation or an
// unreadable log directory abort the run.
func (m *Migration) Run(ctx context.Context) (MigrationReport, error) {
	report := MigrationReport{RunID: uuid.NewString(), StartedAt: m.now()}
	logger := slog.With(slog.String("runId", report.RunID))

	days, err := m.log.ListDays()
	if err != nil {
		report.FinishedAt = m.now()
		return report, fmt.Errorf("list log days: %w", err)
	}
	logger.Info("migration started", slog.Int("days", len(days)), slog.Int("batchSize", m.batchSize))

	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return m.abort(report, err)
		}
		if err := m.migrateDay(ctx, logger, day, &report); err != nil {
			if ctx.Err() != nil {
				return m.abort(report, ctx.Err())
			}
			logger.Error("migration day failed", slog.String("date", day), slog.Any("error", err))
		}
		report.Days++
	}

	report.FinishedAt = m.now()
	logger.Info("migration finished",
		slog.Int("days", report.Days),
		slog.Int("read", report.Read),
		slog.Int("inserted", report.Inserted),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("malformed", report.Malformed),
		slog.Int("failed", report.Failed),
	)
	return report, nil
}

func (m *Migration) migrateDay(ctx context.Context, logger *slog.Logger, day string, report *MigrationReport) error {
	batch := make([]domain.Snapshot, 0, m.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		result, err := m.target.InsertBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			report.Failed += len(batch)
			logger.Error("migration batch failed", slog.String("date", day), slog.Int("size", len(batch)), slog.Any("error", err))
		} else {
			report.Inserted += result.Inserted
			report.Duplicates += result.Duplicates
			logger.Debug("migration batch written", slog.String("date", day), slog.Int("inserted", result.Inserted), slog.Int("duplicates", result.Duplicates))
		}
		batch = batch[:0]
		return nil
	}

	skipped, err := m.log.ScanDay(ctx, day, func(s domain.Snapshot) error {
		report.Read++
		batch = append(batch, s)
		if len(batch) >= m.batchSize {
			return flush()
		}
		return nil
	})
	report.Malformed += skipped
	if err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}
	logger.Info("migration day done", slog.String("date", day), slog.Int("skipped", skipped))
	return nil
}

func (m *Migration) abort(report MigrationReport, err error) (MigrationReport, error) {
	report.FinishedAt = m.now()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("migration interrupted", slog.String("runId", report.RunID), slog.Int("days", report.Days))
	}
	return report, fmt.Errorf("migration aborted: %w", err)
}
