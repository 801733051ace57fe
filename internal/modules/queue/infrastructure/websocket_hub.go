package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
)

// Hub fans live snapshot messages out to websocket subscribers.
type Hub struct {
	topics  map[string]map[*Client]struct{}
	clients map[string]*Client
	mu      sync.RWMutex
}

var _ port.Broadcaster = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		topics:  make(map[string]map[*Client]struct{}),
		clients: make(map[string]*Client),
	}
}

func (h *Hub) AttachClient(c *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.clients[c.id]; ok && existing != c {
		h.detachLocked(existing)
	}
	h.clients[c.id] = c
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		if h.topics[topic] == nil {
			h.topics[topic] = make(map[*Client]struct{})
		}
		h.topics[topic][c] = struct{}{}
		c.subscribed[topic] = struct{}{}
	}
	slog.Info("ws client attached", slog.String("clientId", c.id), slog.String("remote", c.remote), slog.Any("topics", topics))
}

func (h *Hub) detachClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(c)
}

func (h *Hub) detachLocked(c *Client) {
	if c == nil {
		return
	}
	for topic := range c.subscribed {
		if subs, ok := h.topics[topic]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	if current, ok := h.clients[c.id]; ok && current == c {
		delete(h.clients, c.id)
	}
	c.close()
	slog.Info("ws client detached", slog.String("clientId", c.id))
}

// ClientCount returns the number of attached clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close detaches every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		h.detachLocked(c)
	}
}

func (h *Hub) Broadcast(_ context.Context, msg *domain.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("broadcast marshal error", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	subs := h.topics[msg.Topic]
	clients := make([]*Client, 0, len(subs))
	for c := range subs {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(data) {
			slog.Warn("websocket send buffer full", slog.String("clientId", c.id))
			go h.detachClient(c)
		}
	}
}
