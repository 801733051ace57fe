package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"queueWatch/internal/modules/queue/domain"
)

const DefaultSnapshotTopic = "queue.snapshots"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher emits each snapshot as an event keyed by store id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration) *KafkaPublisher {
	if topic == "" {
		topic = DefaultSnapshotTopic
	}
	return &KafkaPublisher{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           timeoutOrDefault(timeout),
		},
	}
}

func (p *KafkaPublisher) Topic() string { return p.topic }

// Publish writes the snapshot without its raw provider payload.
func (p *KafkaPublisher) Publish(ctx context.Context, snapshot domain.Snapshot) error {
	value, err := json.Marshal(snapshot.WithoutRaw())
	if err != nil {
		return fmt.Errorf("encode snapshot event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(snapshot.StoreID, 10)),
		Value: value,
		Time:  snapshot.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish snapshot to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
