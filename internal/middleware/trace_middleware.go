package middleware

import (
	"myEventReco/pkg/trace"

	"github.com/labstack/echo/v4"
)

// RequestTrace puts a trace id on the request context, reusing the
// caller's X-Request-ID when present.
func RequestTrace() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			tid := req.Header.Get(echo.HeaderXRequestID)
			if tid == "" {
				tid = trace.NewID()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, tid)
			c.SetRequest(req.WithContext(trace.WithTraceID(req.Context(), tid)))
			return next(c)
		}
	}
}
