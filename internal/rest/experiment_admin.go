package rest

import (
	"context"
	"net/http"
	"time"

	"myEventReco/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	ExperimentAdminHandler struct {
		configs ExperimentConfigService
		reports ReportService
		timeout time.Duration
	}

	ExperimentConfigService interface {
		GetConfig(ctx context.Context, experiment string) (domain.ExperimentConfig, bool, error)
		UpsertConfig(ctx context.Context, cfg domain.ExperimentConfig) (domain.ExperimentConfig, error)
	}

	ReportService interface {
		Report(ctx context.Context, experiment string) (domain.ExperimentReport, error)
	}
)

func NewExperimentAdminHandler(configs ExperimentConfigService, reports ReportService) *ExperimentAdminHandler {
	return &ExperimentAdminHandler{
		configs: configs,
		reports: reports,
		timeout: 30 * time.Second,
	}
}

// GET /api/v1/admin/experiments/config?experiment=reco_algo
func (h *ExperimentAdminHandler) GetConfig(c echo.Context) error {
	key := c.QueryParam("experiment")
	if key == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "experiment is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	cfg, ok, err := h.configs.GetConfig(ctx, key)
	if err != nil {
		return writeError(c, "experiment_config_get_failed", err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "config not found"})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(cfg))
}

// PUT /api/v1/admin/experiments/config
// body: ExperimentConfig JSON
func (h *ExperimentAdminHandler) UpsertConfig(c echo.Context) error {
	var body domain.ExperimentConfig
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid body: " + err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	saved, err := h.configs.UpsertConfig(ctx, body)
	if err != nil {
		return writeError(c, "experiment_config_upsert_failed", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(saved))
}

// GET /api/v1/admin/experiments/:key/report
func (h *ExperimentAdminHandler) Report(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	report, err := h.reports.Report(ctx, c.Param("key"))
	if err != nil {
		return writeError(c, "experiment_report_failed", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(report))
}
