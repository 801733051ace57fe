package port

import (
	"context"

	"queueWatch/internal/modules/queue/domain"
)

// Broadcaster pushes messages to live websocket subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *domain.Message)
}

// TopicHandler processes broker messages for a single topic.
type TopicHandler interface {
	Topic() string
	Handle(ctx context.Context, payload []byte) error
}
