package broker

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher routes a consumed payload by topic.
type Dispatcher interface {
	Dispatch(ctx context.Context, topic string, payload []byte) error
	Topics() []string
}

// StartKafkaConsumers runs one consumer per registered topic until ctx is
// cancelled. The returned WaitGroup completes when every consumer has exited.
func StartKafkaConsumers(ctx context.Context, dispatcher Dispatcher, brokers []string, groupID string) *sync.WaitGroup {
	var wg sync.WaitGroup
	if len(brokers) == 0 {
		return &wg
	}
	for _, topic := range dispatcher.Topics() {
		wg.Add(1)
		go func(tp string) {
			defer wg.Done()
			consumer := NewKafkaConsumer(brokers, groupID, tp)
			slog.Info("kafka consumer started", slog.String("topic", tp), slog.String("group", groupID))
			err := consumer.Consume(ctx, dispatcher.Dispatch)
			slog.Info("kafka consumer stopped", slog.String("topic", tp), slog.Any("reason", err))
		}(topic)
	}
	return &wg
}
