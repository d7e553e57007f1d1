package middleware

import (
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Logger writes one "Request" line per handled request. Health check traffic under
// /api/v1/health is logged at debug so it does not drown the access log.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			began := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			ctx := c.Request().Context()
			entry := logger.WithContext(ctx).WithFields(map[string]any{
				"request_id":  context.GetRequestID(ctx),
				"user_id":     context.GetUserID(ctx),
				"trace_id":    tracing.GetTraceID(ctx),
				"method":      c.Request().Method,
				"route":       c.Path(),
				"status":      c.Response().Status,
				"bytes_out":   c.Response().Size,
				"duration_ms": time.Since(began).Milliseconds(),
			})

			if strings.HasPrefix(c.Path(), "/api/v1/health") {
				entry.Debug("Request")
				return nil
			}
			entry.Info("Request")
			return nil
		}
	}
}
