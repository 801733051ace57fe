package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"queueWatch/internal/modules/queue/domain"
)

type snapshotIngester interface {
	Ingest(ctx context.Context, snapshot domain.Snapshot) (bool, error)
}

// SnapshotStreamHandler feeds snapshot events published by collectors into the store.
// Redelivered events are harmless because Ingest is keyed on (store_id, timestamp).
type SnapshotStreamHandler struct {
	topic  string
	ingest snapshotIngester
}

func NewSnapshotStreamHandler(topic string, ingest snapshotIngester) *SnapshotStreamHandler {
	return &SnapshotStreamHandler{topic: topic, ingest: ingest}
}

func (h *SnapshotStreamHandler) Topic() string { return h.topic }

func (h *SnapshotStreamHandler) Handle(ctx context.Context, payload []byte) error {
	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		slog.Warn("snapshot event undecodable", slog.String("topic", h.topic), slog.Any("error", err))
		return nil
	}
	inserted, err := h.ingest.Ingest(ctx, snapshot)
	if errors.Is(err, domain.ErrInvalidSnapshot) {
		slog.Warn("snapshot event rejected", slog.String("topic", h.topic), slog.Any("error", err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("ingest snapshot event: %w", err)
	}
	slog.Debug("snapshot event ingested", slog.String("topic", h.topic), slog.Bool("inserted", inserted))
	return nil
}
