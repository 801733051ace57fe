package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"queueWatch/internal/modules/queue/application/usecase"
	"queueWatch/internal/modules/queue/infrastructure"
	"queueWatch/internal/shared/auth"
	"queueWatch/internal/shared/httputil"
)

// Routes bundles what the HTTP surface needs.
type Routes struct {
	Ingest    *usecase.IngestUseCase
	Query     *usecase.QueryUseCase
	Hub       *infrastructure.Hub
	Validator auth.TokenValidator
	Mapper    *httputil.ErrorMapper
	WSBuffer  int
}

// Register mounts the API on e.
func (r Routes) Register(e *echo.Echo) {
	mapper := r.Mapper
	if mapper == nil {
		mapper = NewErrorMapper()
	}

	writes := e.Group("/api/collect", RequireBearer(r.Validator, mapper))
	writes.POST("", NewCollectHandler(r.Ingest, mapper))
	writes.POST("/batch", NewCollectBatchHandler(r.Ingest, mapper))

	e.GET("/api/queue-data", NewQueueDataHandler(r.Query, mapper))
	e.GET("/api/queue-data/chart", NewChartHandler(r.Query, mapper))
	e.GET("/api/stats", NewStatsHandler(r.Query, mapper))

	if r.Hub != nil {
		e.GET("/ws/snapshots", NewSnapshotStreamHandler(r.Hub, r.WSBuffer))
	}
	e.GET("/healthz", func(c echo.Context) error {
		body := map[string]any{"status": "ok"}
		if r.Hub != nil {
			body["clients"] = r.Hub.ClientCount()
		}
		return c.JSON(http.StatusOK, body)
	})
}
