package rest

import (
	"context"
	"net/http"
	"time"

	"myEventReco/business/experiment"
	"myEventReco/domain"
	"myEventReco/internal/middleware"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	ExperimentHandler struct {
		validate *validator.Validate
		assigner AssignmentService
		cookies  StickyCookies
		timeout  time.Duration
	}

	AssignmentService interface {
		Assign(ctx context.Context, in experiment.AssignInput) (domain.AssignmentResult, error)
	}

	AssignRequest struct {
		Experiment string   `json:"experiment" validate:"required,max=64"`
		Variants   []string `json:"variants" validate:"max=16"`
		Split      int      `json:"split" validate:"gte=0,lte=99"`
	}
)

func NewExperimentHandler(assigner AssignmentService, cookies StickyCookies) *ExperimentHandler {
	return &ExperimentHandler{
		validate: validator.New(),
		assigner: assigner,
		cookies:  cookies,
		timeout:  5 * time.Second,
	}
}

// POST /api/v1/experiments/assign
func (h *ExperimentHandler) Assign(c echo.Context) error {
	var req AssignRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res, err := h.assigner.Assign(ctx, experiment.AssignInput{
		Identity:    middleware.IdentityFrom(c),
		Experiment:  req.Experiment,
		Variants:    req.Variants,
		Split:       req.Split,
		StickyToken: h.cookies.Read(c, req.Experiment),
	})
	if err != nil {
		return writeError(c, "experiment_assign_failed", err)
	}

	h.cookies.Write(c, res.Experiment, res.Variant)
	return c.JSON(http.StatusOK, fres.Response.StatusOK(res))
}
