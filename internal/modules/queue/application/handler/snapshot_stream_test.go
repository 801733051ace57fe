package handler

import (
	"context"
	"errors"
	"testing"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
)

type stubIngester struct {
	got []domain.Snapshot
	err error
}

func (s *stubIngester) Ingest(_ context.Context, snapshot domain.Snapshot) (bool, error) {
	if err := snapshot.Validate(); err != nil {
		return false, err
	}
	if s.err != nil {
		return false, s.err
	}
	s.got = append(s.got, snapshot)
	return true, nil
}

func TestSnapshotStreamHandler(t *testing.T) {
	t.Parallel()

	ingester := &stubIngester{}
	handler := NewSnapshotStreamHandler("queue.snapshots", ingester)
	if handler.Topic() != "queue.snapshots" {
		t.Fatalf("unexpected topic %s", handler.Topic())
	}

	event := `{"timestamp":"2026-01-12T04:00:00.000Z","store_id":19,"store_name":"Target","total_lineup":4,"queue_details":{"type_a":4}}`
	if err := handler.Handle(context.Background(), []byte(event)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(ingester.got) != 1 || ingester.got[0].QueueDetails.TypeA != 4 {
		t.Fatalf("unexpected ingested snapshots %+v", ingester.got)
	}

	for _, payload := range []string{`not json`, `{"timestamp":"2026-01-12T04:00:00.000Z","store_id":0}`} {
		if err := handler.Handle(context.Background(), []byte(payload)); err != nil {
			t.Fatalf("expected poison event %q to be dropped, got %v", payload, err)
		}
	}
}

func TestSnapshotStreamHandlerPropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	handler := NewSnapshotStreamHandler("queue.snapshots", &stubIngester{err: port.ErrPersistence})
	event := `{"timestamp":"2026-01-12T04:00:00.000Z","store_id":19,"store_name":"Target","total_lineup":1}`
	if err := handler.Handle(context.Background(), []byte(event)); !errors.Is(err, port.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}
