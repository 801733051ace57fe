package transport

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"queueWatch/internal/shared/auth"
	"queueWatch/internal/shared/httputil"
)

// RequireBearer rejects requests whose bearer credential the validator does not accept.
func RequireBearer(validator auth.TokenValidator, mapper *httputil.ErrorMapper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := validator.Validate(auth.ExtractBearerToken(c.Request()))
			if err != nil {
				return writeError(c, mapper, err)
			}
			slog.Debug("write authorized", slog.String("subject", claims.Subject), slog.String("ip", c.RealIP()))
			return next(c)
		}
	}
}
