package infrastructure

import (
	"context"
	"log/slog"

	"queueWatch/internal/modules/queue/application/port"
)

// HandlerRegistry routes broker payloads to the handler registered for their topic.
type HandlerRegistry struct {
	handlers map[string]port.TopicHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]port.TopicHandler)}
}

func (r *HandlerRegistry) Register(h port.TopicHandler) {
	r.handlers[h.Topic()] = h
}

func (r *HandlerRegistry) Topics() []string {
	topics := make([]string, 0, len(r.handlers))
	for topic := range r.handlers {
		topics = append(topics, topic)
	}
	return topics
}

func (r *HandlerRegistry) Dispatch(ctx context.Context, topic string, payload []byte) error {
	if handler, ok := r.handlers[topic]; ok {
		return handler.Handle(ctx, payload)
	}
	slog.Debug("no handler for topic", slog.String("topic", topic))
	return nil
}
