package usecase

import (
	"context"
	"strings"
	"time"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
)

// DayResult is one local day of snapshots in ascending order.
type DayResult struct {
	Date      string
	Snapshots []domain.Snapshot
}

// ChartResult is the dashboard view of a day. Summary is nil for an empty day.
type ChartResult struct {
	Date    string
	Count   int
	Summary *domain.DaySummary
	Series  []domain.ChartPoint
}

type QueryUseCase struct {
	store     port.SnapshotStore
	loc       *time.Location
	maxPoints int
	charts    *chartCache
	now       func() time.Time
}

func NewQueryUseCase(store port.SnapshotStore, loc *time.Location, maxPoints int) *QueryUseCase {
	if loc == nil {
		loc = time.Local
	}
	if maxPoints <= 0 {
		maxPoints = domain.DefaultChartPoints
	}
	return &QueryUseCase{
		store:     store,
		loc:       loc,
		maxPoints: maxPoints,
		charts:    newChartCache(DefaultChartCacheTTL),
		now:       time.Now,
	}
}

// Today returns the current local date.
func (q *QueryUseCase) Today() string {
	return domain.DateKey(q.now(), q.loc)
}

func (q *QueryUseCase) resolveDate(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return q.Today(), nil
	}
	return domain.ParseDate(raw)
}

// Day lists the snapshots of date; an empty date means today.
func (q *QueryUseCase) Day(ctx context.Context, date string, includeRaw bool) (DayResult, error) {
	resolved, err := q.resolveDate(date)
	if err != nil {
		return DayResult{}, err
	}
	from, to, err := domain.DayBounds(resolved, q.loc)
	if err != nil {
		return DayResult{}, err
	}
	snapshots, err := q.store.ListRange(ctx, from, to)
	if err != nil {
		return DayResult{}, err
	}
	if !includeRaw {
		for i := range snapshots {
			snapshots[i] = snapshots[i].WithoutRaw()
		}
	}
	return DayResult{Date: resolved, Snapshots: snapshots}, nil
}

// Chart summarizes and downsamples a day. Charts of past days are cached briefly;
// today's chart is always computed from the store.
func (q *QueryUseCase) Chart(ctx context.Context, date string) (ChartResult, error) {
	resolved, err := q.resolveDate(date)
	if err != nil {
		return ChartResult{}, err
	}
	now := q.now()
	closed := resolved < domain.DateKey(now, q.loc)
	if closed {
		if cached, ok := q.charts.get(resolved, now); ok {
			return cached, nil
		}
	}

	day, err := q.Day(ctx, resolved, false)
	if err != nil {
		return ChartResult{}, err
	}
	result := ChartResult{
		Date:   day.Date,
		Count:  len(day.Snapshots),
		Series: domain.Downsample(day.Snapshots, q.maxPoints, q.loc),
	}
	if summary, ok := domain.Summarize(day.Snapshots); ok {
		result.Summary = &summary
	}
	if closed {
		q.charts.set(resolved, result, now)
	}
	return result, nil
}

func (q *QueryUseCase) Stats(ctx context.Context) (port.StoreStats, error) {
	return q.store.Stats(ctx, q.loc)
}

// Latest returns the most recent snapshot or nil.
func (q *QueryUseCase) Latest(ctx context.Context) (*domain.Snapshot, error) {
	return q.store.Latest(ctx)
}
