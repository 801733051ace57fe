package domain

import "time"

const (
	QueueEntity = "queue"

	ActionSnapshot  = "snapshot"
	ActionConnected = "connected"

	TopicSnapshot        = QueueEntity + "." + ActionSnapshot
	TopicSystemConnected = "system." + ActionConnected
)

// Message is the envelope pushed to live websocket subscribers.
type Message struct {
	Topic     string            `json:"topic"`
	Entity    string            `json:"entity"`
	Action    string            `json:"action"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Data      any               `json:"data"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewSnapshotMessage wraps a freshly stored snapshot for broadcast.
func NewSnapshotMessage(s Snapshot) *Message {
	return &Message{
		Topic:     TopicSnapshot,
		Entity:    QueueEntity,
		Action:    ActionSnapshot,
		Data:      s.WithoutRaw(),
		Timestamp: time.Now().UTC(),
	}
}
