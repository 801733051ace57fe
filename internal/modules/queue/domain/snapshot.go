package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 form written to the daily log and the wire.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Category is one of the fixed table-size buckets reported by the provider.
type Category string

const (
	CategoryA     Category = "A" // 1-2 seats
	CategoryB     Category = "B" // 3-4 seats
	CategoryC     Category = "C" // 5-6 seats
	CategoryF     Category = "F" // 7-8 seats
	CategoryTotal Category = "T"
)

// Categories lists every bucket in display order.
func Categories() []Category {
	return []Category{CategoryA, CategoryB, CategoryC, CategoryF, CategoryTotal}
}

// ParseCategory maps provider vocabulary onto the fixed set.
func ParseCategory(raw string) (Category, bool) {
	switch Category(strings.ToUpper(strings.TrimSpace(raw))) {
	case CategoryA:
		return CategoryA, true
	case CategoryB:
		return CategoryB, true
	case CategoryC:
		return CategoryC, true
	case CategoryF:
		return CategoryF, true
	case CategoryTotal:
		return CategoryTotal, true
	default:
		return "", false
	}
}

// Label returns the seat range shown on dashboards.
func (c Category) Label() string {
	switch c {
	case CategoryA:
		return "1-2 seats"
	case CategoryB:
		return "3-4 seats"
	case CategoryC:
		return "5-6 seats"
	case CategoryF:
		return "7-8 seats"
	case CategoryTotal:
		return "total"
	default:
		return string(c)
	}
}

// QueueDetails holds the queued party count per category. Every category is
// always present; unreported ones stay zero.
type QueueDetails struct {
	TypeA int `json:"type_a"`
	TypeB int `json:"type_b"`
	TypeC int `json:"type_c"`
	TypeF int `json:"type_f"`
	TypeT int `json:"type_t"`
}

// Get returns the count recorded for c.
func (q QueueDetails) Get(c Category) int {
	switch c {
	case CategoryA:
		return q.TypeA
	case CategoryB:
		return q.TypeB
	case CategoryC:
		return q.TypeC
	case CategoryF:
		return q.TypeF
	case CategoryTotal:
		return q.TypeT
	default:
		return 0
	}
}

func (q *QueueDetails) set(c Category, n int) {
	if n < 0 {
		n = 0
	}
	switch c {
	case CategoryA:
		q.TypeA = n
	case CategoryB:
		q.TypeB = n
	case CategoryC:
		q.TypeC = n
	case CategoryF:
		q.TypeF = n
	case CategoryTotal:
		q.TypeT = n
	}
}

// SeatSum adds the four table-size buckets, excluding the provider total.
func (q QueueDetails) SeatSum() int {
	return q.TypeA + q.TypeB + q.TypeC + q.TypeF
}

// Snapshot is one normalized observation of the target store's queue.
type Snapshot struct {
	Timestamp    time.Time
	StoreID      int64
	StoreName    string
	TotalLineup  int
	QueueDetails QueueDetails
	RawData      json.RawMessage
}

// SnapshotKey is the natural uniqueness key used by the durable store.
type SnapshotKey struct {
	StoreID    int64
	UnixMillis int64
}

func (s Snapshot) Key() SnapshotKey {
	return SnapshotKey{StoreID: s.StoreID, UnixMillis: s.Timestamp.UnixMilli()}
}

// WithoutRaw returns a copy that drops the verbatim provider record.
func (s Snapshot) WithoutRaw() Snapshot {
	s.RawData = nil
	return s
}

// Validate checks the fields a durable store needs to accept the record.
func (s Snapshot) Validate() error {
	switch {
	case s.StoreID <= 0:
		return fmt.Errorf("%w: store_id", ErrInvalidSnapshot)
	case strings.TrimSpace(s.StoreName) == "":
		return fmt.Errorf("%w: store_name", ErrInvalidSnapshot)
	case s.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp", ErrInvalidSnapshot)
	case s.TotalLineup < 0:
		return fmt.Errorf("%w: total_lineup", ErrInvalidSnapshot)
	}
	return nil
}

type snapshotJSON struct {
	Timestamp    string          `json:"timestamp"`
	StoreID      int64           `json:"store_id"`
	StoreName    string          `json:"store_name"`
	TotalLineup  int             `json:"total_lineup"`
	QueueDetails QueueDetails    `json:"queue_details"`
	RawData      json.RawMessage `json:"raw_data,omitempty"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Timestamp:    FormatTimestamp(s.Timestamp),
		StoreID:      s.StoreID,
		StoreName:    s.StoreName,
		TotalLineup:  s.TotalLineup,
		QueueDetails: s.QueueDetails,
		RawData:      s.RawData,
	})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var wire snapshotJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	ts, err := ParseTimestamp(wire.Timestamp)
	if err != nil {
		return err
	}
	*s = Snapshot{
		Timestamp:    ts,
		StoreID:      wire.StoreID,
		StoreName:    wire.StoreName,
		TotalLineup:  wire.TotalLineup,
		QueueDetails: wire.QueueDetails,
	}
	if len(wire.RawData) > 0 && string(wire.RawData) != "null" {
		s.RawData = append(json.RawMessage(nil), wire.RawData...)
	}
	return nil
}

// FormatTimestamp renders t as a UTC millisecond ISO-8601 string.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts any RFC 3339 instant and normalizes it to UTC milliseconds.
func ParseTimestamp(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: timestamp", ErrInvalidSnapshot)
	}
	ts, err := time.Parse(time.RFC3339Nano, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrInvalidSnapshot, trimmed)
	}
	return ts.UTC().Truncate(time.Millisecond), nil
}
