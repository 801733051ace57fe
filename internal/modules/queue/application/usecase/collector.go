package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
)

// Collector performs one fetch-and-normalize attempt.
type Collector struct {
	source port.SourceFetcher
	now    func() time.Time
}

func NewCollector(source port.SourceFetcher) *Collector {
	return &Collector{source: source, now: time.Now}
}

// Collect returns the current snapshot, or nil when this attempt produced
// nothing. Failures are logged here and never propagated.
func (c *Collector) Collect(ctx context.Context) (snapshot *domain.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("collect panic", slog.Any("error", fmt.Errorf("%v", r)))
			snapshot = nil
		}
	}()

	record, err := c.source.FetchTargetStore(ctx)
	if err != nil {
		logCollectError(err)
		return nil
	}
	if record == nil {
		slog.Info("target store not found")
		return nil
	}

	normalized, err := domain.Normalize(*record, c.now())
	if err != nil {
		logCollectError(err)
		return nil
	}
	slog.Info("snapshot collected", collectAttrs(normalized)...)
	return &normalized
}

func collectAttrs(s domain.Snapshot) []any {
	attrs := []any{
		slog.Int64("storeId", s.StoreID),
		slog.String("storeName", s.StoreName),
		slog.Int("totalLineup", s.TotalLineup),
		slog.Int("seatSum", s.QueueDetails.SeatSum()),
	}
	for _, c := range domain.Categories() {
		attrs = append(attrs, slog.Int("type"+string(c), s.QueueDetails.Get(c)))
	}
	return attrs
}

func logCollectError(err error) {
	switch {
	case errors.Is(err, port.ErrStoreNotFound):
		slog.Info("target store not found", slog.Any("error", err))
	case errors.Is(err, domain.ErrMalformedSourceData):
		slog.Warn("malformed source data", slog.Any("error", err))
	case errors.Is(err, context.Canceled):
		slog.Info("collect cancelled")
	default:
		slog.Error("queue source unavailable", slog.Any("error", err))
	}
}
