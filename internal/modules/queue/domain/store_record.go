package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"queueWatch/internal/shared/normalization"
)

// QueueEntry is one provider-reported queue bucket before translation.
type QueueEntry struct {
	Type string
	Num  int
}

// StoreRecord is the strict projection of one provider store entry. Only the
// fields the Snapshot needs are parsed; Raw keeps the verbatim bytes.
type StoreRecord struct {
	ID     int64
	Title  string
	Lineup *int
	Queues []QueueEntry
	Raw    json.RawMessage
}

type providerStore struct {
	ID        any             `json:"id"`
	Title     any             `json:"title"`
	Lineup    any             `json:"lineup"`
	AllLineup []providerQueue `json:"all_lineup"`
}

type providerQueue struct {
	Type any `json:"type"`
	Num  any `json:"num"`
}

// DecodeStoreRecord parses a single provider store object.
func DecodeStoreRecord(raw json.RawMessage) (StoreRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return StoreRecord{}, fmt.Errorf("%w: store entry is not an object", ErrMalformedSourceData)
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var payload providerStore
	if err := decoder.Decode(&payload); err != nil {
		return StoreRecord{}, fmt.Errorf("%w: %v", ErrMalformedSourceData, err)
	}

	record := StoreRecord{
		Title: normalization.AsString(payload.Title),
		Raw:   append(json.RawMessage(nil), trimmed...),
	}
	if id, ok := normalization.AsInt(payload.ID); ok {
		record.ID = int64(id)
	}
	if lineup, ok := normalization.AsInt(payload.Lineup); ok {
		record.Lineup = &lineup
	}
	for _, entry := range payload.AllLineup {
		num, _ := normalization.AsInt(entry.Num)
		record.Queues = append(record.Queues, QueueEntry{
			Type: normalization.AsString(entry.Type),
			Num:  num,
		})
	}
	return record, nil
}

// Normalize builds a Snapshot from a provider record observed at observedAt.
// Unknown queue types are ignored; missing categories stay zero.
func Normalize(record StoreRecord, observedAt time.Time) (Snapshot, error) {
	if record.ID <= 0 {
		return Snapshot{}, fmt.Errorf("%w: missing store id", ErrMalformedSourceData)
	}
	name := strings.TrimSpace(record.Title)
	if name == "" {
		return Snapshot{}, fmt.Errorf("%w: missing store title", ErrMalformedSourceData)
	}
	if record.Lineup == nil {
		return Snapshot{}, fmt.Errorf("%w: missing lineup", ErrMalformedSourceData)
	}
	if *record.Lineup < 0 {
		return Snapshot{}, fmt.Errorf("%w: negative lineup %d", ErrMalformedSourceData, *record.Lineup)
	}

	var details QueueDetails
	for _, entry := range record.Queues {
		category, ok := ParseCategory(entry.Type)
		if !ok {
			continue
		}
		details.set(category, entry.Num)
	}

	return Snapshot{
		Timestamp:    observedAt.UTC().Truncate(time.Millisecond),
		StoreID:      record.ID,
		StoreName:    name,
		TotalLineup:  *record.Lineup,
		QueueDetails: details,
		RawData:      record.Raw,
	}, nil
}
