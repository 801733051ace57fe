package usecase

import (
	"context"
	"sort"
	"sync"
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

type stubSource struct {
	record *domain.StoreRecord
	err    error
	panics bool
}

func (s stubSource) FetchTargetStore(context.Context) (*domain.StoreRecord, error) {
	if s.panics {
		panic("provider exploded")
	}
	return s.record, s.err
}

type memoryStore struct {
	mu        sync.Mutex
	snapshots map[domain.SnapshotKey]domain.Snapshot
	failNext  int
	calls     int
	lists     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{snapshots: make(map[domain.SnapshotKey]domain.Snapshot)}
}

func (m *memoryStore) InsertBatch(_ context.Context, snapshots []domain.Snapshot) (port.InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failNext > 0 {
		m.failNext--
		return port.InsertResult{}, port.ErrPersistence
	}
	var result port.InsertResult
	for _, s := range snapshots {
		if err := s.Validate(); err != nil {
			return port.InsertResult{}, err
		}
		if _, ok := m.snapshots[s.Key()]; ok {
			result.Duplicates++
			continue
		}
		m.snapshots[s.Key()] = s
		result.Inserted++
	}
	return result, nil
}

func (m *memoryStore) ListRange(_ context.Context, from, to time.Time) ([]domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := make([]domain.Snapshot, 0)
	for _, s := range m.snapshots {
		if !s.Timestamp.Before(from) && s.Timestamp.Before(to) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *memoryStore) Stats(_ context.Context, loc *time.Location) (port.StoreStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	stats := port.StoreStats{TotalRecords: len(m.snapshots), AvailableDates: []string{}}
	for _, s := range m.snapshots {
		date := domain.DateKey(s.Timestamp, loc)
		if _, ok := seen[date]; !ok {
			seen[date] = struct{}{}
			stats.AvailableDates = append(stats.AvailableDates, date)
		}
	}
	sort.Strings(stats.AvailableDates)
	if n := len(stats.AvailableDates); n > 0 {
		stats.FirstDate, stats.LastDate = stats.AvailableDates[0], stats.AvailableDates[n-1]
	}
	return stats, nil
}

func (m *memoryStore) Latest(ctx context.Context) (*domain.Snapshot, error) {
	all, _ := m.ListRange(ctx, time.Unix(0, 0), time.Now().Add(24*time.Hour))
	if len(all) == 0 {
		return nil, nil
	}
	return &all[len(all)-1], nil
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []*domain.Message
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, msg *domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}
