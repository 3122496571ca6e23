package httpx

import (
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/logging"
	"github.com/labstack/echo/v4"
)

// RequestLogger logs one line per request after the error handler has
// written the response. The request id set by middleware.RequestID is put
// into the request context so every log line of the request carries it.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(logging.WithAttrs(req.Context(), "request_id", id)))
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			log.Info(req.Context(), "http request",
				"method", req.Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"duration", time.Since(start).String(),
				"remote_ip", c.RealIP(),
			)
			return nil
		}
	}
}
