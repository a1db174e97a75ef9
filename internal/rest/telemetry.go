package rest

import (
	"context"
	"net/http"
	"time"

	"myEventReco/business/telemetry"
	"myEventReco/domain"
	"myEventReco/internal/middleware"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	TelemetryHandler struct {
		validate *validator.Validate
		recorder TelemetryService
		timeout  time.Duration
	}

	TelemetryService interface {
		RecordClick(ctx context.Context, in telemetry.ClickInput) (domain.ClickResult, error)
		RecordEvent(ctx context.Context, in telemetry.EventInput) error
	}

	EventRequest struct {
		Experiment string   `json:"experiment" validate:"max=64"`
		Variant    string   `json:"variant" validate:"max=32"`
		EventName  string   `json:"event_name" validate:"required,max=64"`
		Value      *float64 `json:"value"`
		Context    string   `json:"context"`
	}

	ClickRequest struct {
		ItemID     uint64 `json:"item_id" validate:"required"`
		Experiment string `json:"experiment" validate:"max=64"`
		Variant    string `json:"variant" validate:"max=32"`
		Context    string `json:"context"`
	}
)

func NewTelemetryHandler(recorder TelemetryService) *TelemetryHandler {
	return &TelemetryHandler{
		validate: validator.New(),
		recorder: recorder,
		timeout:  5 * time.Second,
	}
}

// POST /api/v1/telemetry/events
func (h *TelemetryHandler) RecordEvent(c echo.Context) error {
	var req EventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	err := h.recorder.RecordEvent(ctx, telemetry.EventInput{
		Experiment: req.Experiment,
		Variant:    req.Variant,
		Subject:    middleware.IdentityFrom(c).Subject(),
		EventName:  req.EventName,
		Value:      req.Value,
		Context:    req.Context,
	})
	if err != nil {
		return writeError(c, "telemetry_event_failed", err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("event recorded"))
}

// POST /api/v1/telemetry/clicks
func (h *TelemetryHandler) RecordClick(c echo.Context) error {
	var req ClickRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res, err := h.recorder.RecordClick(ctx, telemetry.ClickInput{
		ItemID:     req.ItemID,
		Subject:    middleware.IdentityFrom(c).Subject(),
		Experiment: req.Experiment,
		Variant:    req.Variant,
		Context:    req.Context,
	})
	if err != nil {
		return writeError(c, "telemetry_click_failed", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(res))
}
