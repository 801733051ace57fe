package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"queueWatch/internal/modules/queue/domain"
	"queueWatch/internal/modules/queue/infrastructure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewSnapshotStreamHandler upgrades GET /ws/snapshots and subscribes the
// connection to every newly ingested snapshot.
func NewSnapshotStreamHandler(hub *infrastructure.Hub, buffer int) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("ws upgrade failed", slog.String("ip", c.RealIP()), slog.Any("error", err))
			return err
		}

		client := infrastructure.NewClient(hub, conn, uuid.NewString(), c.RealIP(), buffer)
		hub.AttachClient(client, []string{domain.TopicSnapshot})
		client.SendDomainMessage(&domain.Message{
			Topic:     domain.TopicSystemConnected,
			Entity:    domain.QueueEntity,
			Action:    domain.ActionConnected,
			Metadata:  map[string]string{"topics": domain.TopicSnapshot},
			Timestamp: time.Now().UTC(),
		})

		go client.WritePump()
		client.ReadPump()
		return nil
	}
}
