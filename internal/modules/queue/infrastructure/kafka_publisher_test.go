package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"queueWatch/internal/modules/queue/domain"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherPublish(t *testing.T) {
	t.Parallel()

	writer := &recordingWriter{}
	publisher := &KafkaPublisher{writer: writer, topic: DefaultSnapshotTopic}

	snapshot := testSnapshot(time.Date(2026, 1, 12, 12, 0, 0, 0, testZone), 5)
	snapshot.RawData = json.RawMessage(`{"id":19}`)
	if err := publisher.Publish(context.Background(), snapshot); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(writer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "19" {
		t.Fatalf("expected store id key, got %q", msg.Key)
	}
	var decoded domain.Snapshot
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.TotalLineup != 5 || decoded.RawData != nil {
		t.Fatalf("unexpected event payload %s", msg.Value)
	}

	if err := publisher.Close(); err != nil || !writer.closed {
		t.Fatalf("expected writer to be closed, got %v", err)
	}
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	t.Parallel()

	publisher := &KafkaPublisher{writer: &recordingWriter{err: errors.New("leader not available")}, topic: "queue.snapshots"}
	err := publisher.Publish(context.Background(), testSnapshot(time.Now(), 1))
	if err == nil || !strings.Contains(err.Error(), "queue.snapshots") {
		t.Fatalf("expected wrapped publish error, got %v", err)
	}
}
