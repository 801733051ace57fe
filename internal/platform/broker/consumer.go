package broker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const maxHandlerBackoff = 30 * time.Second

// KafkaConsumer reads one topic within a consumer group. A message whose handler
// fails is retried in place until it succeeds, and only then committed.
type KafkaConsumer struct {
	reader  messageReader
	topic   string
	backoff time.Duration
}

func NewKafkaConsumer(brokers []string, groupID string, topic string) *KafkaConsumer {
	return &KafkaConsumer{
		topic:   topic,
		backoff: time.Second,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}),
	}
}

// Consume blocks until ctx is cancelled.
func (c *KafkaConsumer) Consume(ctx context.Context, handler func(ctx context.Context, topic string, payload []byte) error) error {
	defer c.reader.Close()
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			slog.Warn("kafka read error", slog.String("topic", c.topic), slog.Any("error", err))
			if !sleepCtx(ctx, c.backoff) {
				return ctx.Err()
			}
			continue
		}
		slog.Debug("kafka message consumed",
			slog.String("topic", m.Topic),
			slog.Int("partition", m.Partition),
			slog.Int64("offset", m.Offset),
		)
		if !c.handleUntilDone(ctx, m, handler) {
			return ctx.Err()
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			slog.Warn("kafka commit error", slog.String("topic", m.Topic), slog.Int64("offset", m.Offset), slog.Any("error", err))
		}
	}
}

// handleUntilDone runs handler on m with growing backoff. It returns false
// only when ctx ends before the handler succeeds.
func (c *KafkaConsumer) handleUntilDone(ctx context.Context, m kafka.Message, handler func(ctx context.Context, topic string, payload []byte) error) bool {
	backoff := c.backoff
	for attempt := 1; ; attempt++ {
		err := handler(ctx, m.Topic, m.Value)
		if err == nil {
			return true
		}
		slog.Warn("kafka handler error, retrying message",
			slog.String("topic", m.Topic),
			slog.Int64("offset", m.Offset),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
		if !sleepCtx(ctx, backoff) {
			return false
		}
		backoff = min(backoff*2, maxHandlerBackoff)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
