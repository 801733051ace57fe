package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"queueWatch/internal/modules/queue/application/usecase"
	"queueWatch/internal/modules/queue/domain"
	"queueWatch/internal/shared/httputil"
)

const (
	maxSnapshotBody = 1 << 20
	maxBatchBody    = 32 << 20
	maxBatchSize    = 1000
)

type batchRequest struct {
	Snapshots []domain.Snapshot `json:"snapshots"`
}

// collectRequest mirrors the wire snapshot loosely so missing fields produce a 400 with a field name.
type collectRequest struct {
	StoreID   *int64 `json:"store_id"`
	StoreName string `json:"store_name"`
}

// NewCollectHandler stores one snapshot posted by a collector. Duplicates succeed.
func NewCollectHandler(ingest *usecase.IngestUseCase, mapper *httputil.ErrorMapper) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := readLimited(c, maxSnapshotBody)
		if err != nil {
			return writeError(c, mapper, err)
		}
		var probe collectRequest
		if err := json.Unmarshal(body, &probe); err != nil {
			return writeError(c, mapper, badRequest("Invalid JSON body"))
		}
		if probe.StoreID == nil || probe.StoreName == "" {
			return writeError(c, mapper, badRequest("Missing required fields"))
		}
		var snapshot domain.Snapshot
		if err := json.Unmarshal(body, &snapshot); err != nil {
			return writeError(c, mapper, badRequest("Invalid snapshot: %v", err))
		}

		inserted, err := ingest.Ingest(c.Request().Context(), snapshot)
		if err != nil {
			return writeError(c, mapper, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"success": true, "inserted": inserted})
	}
}

// NewCollectBatchHandler stores a batch of snapshots, typically from a log migration.
func NewCollectBatchHandler(ingest *usecase.IngestUseCase, mapper *httputil.ErrorMapper) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := readLimited(c, maxBatchBody)
		if err != nil {
			return writeError(c, mapper, err)
		}
		var req batchRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return writeError(c, mapper, badRequest("Invalid snapshot: %v", err))
		}
		if len(req.Snapshots) > maxBatchSize {
			return writeError(c, mapper, badRequest("Batch exceeds %d snapshots", maxBatchSize))
		}

		result, err := ingest.IngestBatch(c.Request().Context(), req.Snapshots)
		if err != nil {
			return writeError(c, mapper, err)
		}
		return c.JSON(http.StatusOK, map[string]any{
			"success":    true,
			"inserted":   result.Inserted,
			"duplicates": result.Duplicates,
		})
	}
}

func readLimited(c echo.Context, limit int64) ([]byte, error) {
	reader := http.MaxBytesReader(c.Response(), c.Request().Body, limit)
	defer reader.Close()
	var body json.RawMessage
	if err := json.NewDecoder(reader).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit %d bytes", errPayloadTooLarge, tooLarge.Limit)
		}
		return nil, badRequest("Invalid JSON body")
	}
	return body, nil
}
