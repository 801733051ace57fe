package transport

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"queueWatch/internal/modules/queue/application/usecase"
	"queueWatch/internal/modules/queue/domain"
	"queueWatch/internal/shared/httputil"
)

type dateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type statsBody struct {
	TotalRecords   int        `json:"totalRecords"`
	AvailableDates []string   `json:"availableDates"`
	DateRange      *dateRange `json:"dateRange"`
}

// NewQueueDataHandler serves GET /api/queue-data?date=YYYY-MM-DD[&raw=true].
func NewQueueDataHandler(query *usecase.QueryUseCase, mapper *httputil.ErrorMapper) echo.HandlerFunc {
	return func(c echo.Context) error {
		includeRaw, _ := strconv.ParseBool(c.QueryParam("raw"))
		day, err := query.Day(c.Request().Context(), c.QueryParam("date"), includeRaw)
		if err != nil {
			return writeError(c, mapper, err)
		}
		return c.JSON(http.StatusOK, map[string]any{
			"success": true,
			"date":    day.Date,
			"count":   len(day.Snapshots),
			"data":    day.Snapshots,
		})
	}
}

// NewChartHandler serves the summary and downsampled series of a day.
func NewChartHandler(query *usecase.QueryUseCase, mapper *httputil.ErrorMapper) echo.HandlerFunc {
	return func(c echo.Context) error {
		chart, err := query.Chart(c.Request().Context(), c.QueryParam("date"))
		if err != nil {
			return writeError(c, mapper, err)
		}
		series := chart.Series
		if series == nil {
			series = []domain.ChartPoint{}
		}
		return c.JSON(http.StatusOK, map[string]any{
			"success": true,
			"date":    chart.Date,
			"count":   chart.Count,
			"summary": chart.Summary,
			"series":  series,
		})
	}
}

func NewStatsHandler(query *usecase.QueryUseCase, mapper *httputil.ErrorMapper) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := query.Stats(c.Request().Context())
		if err != nil {
			return writeError(c, mapper, err)
		}
		body := statsBody{TotalRecords: stats.TotalRecords, AvailableDates: stats.AvailableDates}
		if body.AvailableDates == nil {
			body.AvailableDates = []string{}
		}
		if stats.FirstDate != "" {
			body.DateRange = &dateRange{Start: stats.FirstDate, End: stats.LastDate}
		}
		return c.JSON(http.StatusOK, map[string]any{"success": true, "stats": body})
	}
}
