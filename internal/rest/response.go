package rest

import (
	"context"
	"errors"
	"net/http"

	"myEventReco/business/experiment"
	"myEventReco/business/telemetry"
	"myEventReco/pkg/logger"
	"myEventReco/pkg/trace"

	"github.com/labstack/echo/v4"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

// writeError maps business errors to status codes. Validation failures keep
// their message; anything else is logged and reported generically.
func writeError(c echo.Context, event string, err error) error {
	switch {
	case errors.Is(err, experiment.ErrInvalidExperiment),
		errors.Is(err, experiment.ErrMissingSubject),
		errors.Is(err, telemetry.ErrInvalidClick),
		errors.Is(err, telemetry.ErrInvalidEvent):
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn(event, "trace_id", trace.TraceIDFromContext(c.Request().Context()), "error", err)
		return c.JSON(http.StatusGatewayTimeout, ResponseError{Message: "request timed out"})
	default:
		logger.Error(event, "trace_id", trace.TraceIDFromContext(c.Request().Context()), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: "internal server error"})
	}
}
