package infrastructure

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
)

const badgerConflictRetries = 3

var snapshotKeyPrefix = []byte("snap/")

// BadgerStore is the embedded SnapshotStore. Keys are
// snap/<store id big-endian>/<unix millis big-endian> so a key encodes the natural key.
type BadgerStore struct {
	db *badger.DB
}

var _ port.SnapshotStore = (*BadgerStore)(nil)

// OpenBadgerStore opens dir, or an in-memory store when dir is empty.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger %q: %w", port.ErrPersistence, dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func snapshotKey(key domain.SnapshotKey) []byte {
	buf := make([]byte, 0, len(snapshotKeyPrefix)+17)
	buf = append(buf, snapshotKeyPrefix...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(key.StoreID))
	buf = append(buf, '/')
	buf = binary.BigEndian.AppendUint64(buf, uint64(key.UnixMillis))
	return buf
}

func millisFromKey(key []byte) (int64, bool) {
	_, millis, ok := parseSnapshotKey(key)
	return millis, ok
}

func parseSnapshotKey(key []byte) (storeID, millis int64, ok bool) {
	if len(key) != len(snapshotKeyPrefix)+17 || !bytes.HasPrefix(key, snapshotKeyPrefix) {
		return 0, 0, false
	}
	storeID = int64(binary.BigEndian.Uint64(key[len(snapshotKeyPrefix):]))
	millis = int64(binary.BigEndian.Uint64(key[len(key)-8:]))
	return storeID, millis, true
}

func (s *BadgerStore) InsertBatch(ctx context.Context, snapshots []domain.Snapshot) (port.InsertResult, error) {
	for _, snapshot := range snapshots {
		if err := snapshot.Validate(); err != nil {
			return port.InsertResult{}, err
		}
	}

	var result port.InsertResult
	var err error
	for attempt := 0; attempt < badgerConflictRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return port.InsertResult{}, ctxErr
		}
		result = port.InsertResult{}
		err = s.db.Update(func(txn *badger.Txn) error {
			for _, snapshot := range snapshots {
				key := snapshotKey(snapshot.Key())
				_, getErr := txn.Get(key)
				if getErr == nil {
					result.Duplicates++
					continue
				}
				if !errors.Is(getErr, badger.ErrKeyNotFound) {
					return getErr
				}
				value, encErr := json.Marshal(snapshot)
				if encErr != nil {
					return encErr
				}
				if setErr := txn.Set(key, value); setErr != nil {
					return setErr
				}
				result.Inserted++
			}
			return nil
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return port.InsertResult{}, fmt.Errorf("%w: badger insert: %w", port.ErrPersistence, err)
	}
	return result, nil
}

func (s *BadgerStore) ListRange(ctx context.Context, from, to time.Time) ([]domain.Snapshot, error) {
	snapshots, _, err := s.listRange(ctx, from, to)
	return snapshots, err
}

// listRange seeks straight to [from, to) within each store id instead of
// walking every key. It also reports how many keys it touched.
func (s *BadgerStore) listRange(ctx context.Context, from, to time.Time) ([]domain.Snapshot, int, error) {
	fromMillis, toMillis := max(from.UnixMilli(), 0), to.UnixMilli()
	snapshots := make([]domain.Snapshot, 0)
	visited := 0
	err := s.db.View(func(txn *badger.Txn) error {
		if fromMillis >= toMillis {
			return nil
		}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = snapshotKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(snapshotKeyPrefix)
		for it.Valid() {
			if err := ctx.Err(); err != nil {
				return err
			}
			visited++
			item := it.Item()
			storeID, millis, ok := parseSnapshotKey(item.Key())
			switch {
			case !ok:
				it.Next()
				continue
			case millis < fromMillis:
				it.Seek(snapshotKey(domain.SnapshotKey{StoreID: storeID, UnixMillis: fromMillis}))
				continue
			case millis >= toMillis:
				if storeID == math.MaxInt64 {
					return nil
				}
				it.Seek(snapshotKey(domain.SnapshotKey{StoreID: storeID + 1, UnixMillis: fromMillis}))
				continue
			}
			var snapshot domain.Snapshot
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &snapshot)
			}); err != nil {
				return err
			}
			snapshots = append(snapshots, snapshot)
			it.Next()
		}
		return nil
	})
	if err != nil {
		return nil, visited, fmt.Errorf("%w: badger range: %w", port.ErrPersistence, err)
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.Before(snapshots[j].Timestamp)
	})
	return snapshots, visited, nil
}

func (s *BadgerStore) Stats(ctx context.Context, loc *time.Location) (port.StoreStats, error) {
	stats := port.StoreStats{AvailableDates: []string{}}
	dates := make(map[string]struct{})
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = snapshotKeyPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			millis, ok := millisFromKey(it.Item().Key())
			if !ok {
				continue
			}
			stats.TotalRecords++
			dates[domain.DateKey(time.UnixMilli(millis), loc)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return port.StoreStats{}, fmt.Errorf("%w: badger stats: %w", port.ErrPersistence, err)
	}
	for date := range dates {
		stats.AvailableDates = append(stats.AvailableDates, date)
	}
	sort.Strings(stats.AvailableDates)
	if n := len(stats.AvailableDates); n > 0 {
		stats.FirstDate = stats.AvailableDates[0]
		stats.LastDate = stats.AvailableDates[n-1]
	}
	return stats, nil
}

func (s *BadgerStore) Latest(ctx context.Context) (*domain.Snapshot, error) {
	var latest *domain.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = snapshotKeyPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var latestKey []byte
		latestMillis := int64(-1 << 63)
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			millis, ok := millisFromKey(item.Key())
			if ok && (latestKey == nil || millis > latestMillis) {
				latestMillis = millis
				latestKey = item.KeyCopy(nil)
			}
		}
		if latestKey == nil {
			return nil
		}
		item, err := txn.Get(latestKey)
		if err != nil {
			return err
		}
		var snapshot domain.Snapshot
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snapshot)
		}); err != nil {
			return err
		}
		latest = &snapshot
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: badger latest: %w", port.ErrPersistence, err)
	}
	return latest, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's internal logging through slog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	slog.Error(strings.TrimSpace(fmt.Sprintf(format, args...)), slog.String("component", "badger"))
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	slog.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), slog.String("component", "badger"))
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	slog.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), slog.String("component", "badger"))
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	slog.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), slog.String("component", "badger"))
}
