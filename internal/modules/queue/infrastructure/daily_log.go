package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
)

const (
	DefaultLogDirectory = "data/snapshots"
	dailyLogExt         = ".jsonl"
)

// DailyLog stores snapshots as newline-delimited JSON, one file per local calendar day.
// A single DailyLog must be the only writer of its directory within the process.
type DailyLog struct {
	dir string
	loc *time.Location
	mu  sync.Mutex
}

var _ port.SnapshotLog = (*DailyLog)(nil)

func NewDailyLog(dir string, loc *time.Location) *DailyLog {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultLogDirectory
	}
	if loc == nil {
		loc = time.Local
	}
	return &DailyLog{dir: dir, loc: loc}
}

func (l *DailyLog) Dir() string { return l.dir }

func (l *DailyLog) path(date string) string {
	return filepath.Join(l.dir, date+dailyLogExt)
}

// Append writes one record to the file of the snapshot's local day.
func (l *DailyLog) Append(ctx context.Context, snapshot domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", port.ErrPersistence, err)
	}
	line, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %w", port.ErrPersistence, err)
	}
	line = append(line, '\n')
	date := domain.DateKey(snapshot.Timestamp, l.loc)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create log directory: %w", port.ErrPersistence, err)
	}
	file, err := os.OpenFile(l.path(date), os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", port.ErrPersistence, date, err)
	}
	defer file.Close()

	terminated, err := endsWithNewline(file)
	if err != nil {
		return fmt.Errorf("%w: inspect %s: %w", port.ErrPersistence, date, err)
	}
	if !terminated {
		line = append([]byte{'\n'}, line...)
	}
	if _, err := file.Write(line); err != nil {
		return fmt.Errorf("%w: write %s: %w", port.ErrPersistence, date, err)
	}
	return nil
}

// endsWithNewline reports whether the file is empty or its last byte is a newline.
func endsWithNewline(file *os.File) (bool, error) {
	info, err := file.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return true, nil
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] == '\n', nil
}

// ReadDay returns the parsable records of date in append order. A missing day is empty.
func (l *DailyLog) ReadDay(ctx context.Context, date string) ([]domain.Snapshot, error) {
	snapshots := make([]domain.Snapshot, 0)
	_, err := l.ScanDay(ctx, date, func(s domain.Snapshot) error {
		snapshots = append(snapshots, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// ScanDay streams the records of date to visit and returns how many lines were skipped.
func (l *DailyLog) ScanDay(ctx context.Context, date string, visit func(domain.Snapshot) error) (int, error) {
	canonical, err := domain.ParseDate(date)
	if err != nil {
		return 0, err
	}
	file, err := os.Open(l.path(canonical))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", canonical, err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	skipped := 0
	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return skipped, err
		}
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return skipped, fmt.Errorf("read %s: %w", canonical, readErr)
		}
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			snapshot, err := parseLogLine(trimmed)
			if err != nil {
				skipped++
				slog.Warn("daily log line skipped", slog.String("date", canonical), slog.Int("line", lineNo), slog.Any("error", err))
			} else if err := visit(snapshot); err != nil {
				return skipped, err
			}
		}
		if errors.Is(readErr, io.EOF) {
			return skipped, nil
		}
	}
}

func parseLogLine(line []byte) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := json.Unmarshal(line, &snapshot); err != nil {
		return domain.Snapshot{}, err
	}
	if err := snapshot.Validate(); err != nil {
		return domain.Snapshot{}, err
	}
	return snapshot, nil
}

// ListDays returns the dates that have a log file, ascending.
func (l *DailyLog) ListDays() ([]string, error) {
	days, _, err := l.scanDir()
	return days, err
}

// Stats summarizes file count, total size and date range of the log directory.
func (l *DailyLog) Stats() (port.LogStats, error) {
	days, total, err := l.scanDir()
	if err != nil {
		return port.LogStats{}, err
	}
	stats := port.LogStats{Files: len(days), TotalBytes: total}
	if len(days) > 0 {
		stats.FirstDate = days[0]
		stats.LastDate = days[len(days)-1]
	}
	return stats, nil
}

func (l *DailyLog) scanDir() ([]string, int64, error) {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", l.dir, err)
	}

	days := make([]string, 0, len(entries))
	var total int64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, dailyLogExt) {
			continue
		}
		date, err := domain.ParseDate(strings.TrimSuffix(name, dailyLogExt))
		if err != nil || date+dailyLogExt != name {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, 0, fmt.Errorf("stat %s: %w", name, err)
		}
		days = append(days, date)
		total += info.Size()
	}
	sort.Strings(days)
	return days, total, nil
}
