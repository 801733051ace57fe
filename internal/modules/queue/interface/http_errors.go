package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
	"queueWatch/internal/shared/auth"
	"queueWatch/internal/shared/httputil"
)

var (
	errBadRequest      = errors.New("bad request")
	errPayloadTooLarge = errors.New("request body too large")
)

// requestError carries a client-facing message and matches errBadRequest.
type requestError struct{ msg string }

func (e requestError) Error() string { return e.msg }
func (e requestError) Unwrap() error { return errBadRequest }

func badRequest(format string, args ...any) error {
	return requestError{msg: fmt.Sprintf(format, args...)}
}

// NewErrorMapper maps queue errors onto the JSON error responses of the API.
func NewErrorMapper() *httputil.ErrorMapper {
	return httputil.NewErrorMapper().
		WithMapping(auth.ErrMissingToken, http.StatusUnauthorized, "Unauthorized").
		WithMapping(auth.ErrInvalidToken, http.StatusUnauthorized, "Unauthorized").
		WithMapping(auth.ErrNotConfigured, http.StatusServiceUnavailable, "write endpoint not configured").
		WithMapping(errBadRequest, http.StatusBadRequest, "").
		WithMapping(errPayloadTooLarge, http.StatusRequestEntityTooLarge, "Payload too large").
		WithMapping(domain.ErrInvalidSnapshot, http.StatusBadRequest, "").
		WithMapping(domain.ErrInvalidDate, http.StatusBadRequest, "").
		WithMapping(port.ErrPersistence, http.StatusInternalServerError, "storage error")
}

func writeError(c echo.Context, mapper *httputil.ErrorMapper, err error) error {
	status, body := mapper.Body(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", slog.String("path", c.Path()), slog.Int("status", status), slog.Any("error", err))
	} else {
		slog.Warn("request rejected", slog.String("path", c.Path()), slog.Int("status", status), slog.Any("error", err))
	}
	return c.JSON(status, body)
}
