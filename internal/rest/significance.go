package rest

import (
	"net/http"

	"myEventReco/business/significance"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	SignificanceHandler struct {
		validate *validator.Validate
	}

	SignificanceRequest struct {
		N1 int64 `json:"n1" validate:"gte=0"`
		C1 int64 `json:"c1" validate:"gte=0,ltefield=N1"`
		N2 int64 `json:"n2" validate:"gte=0"`
		C2 int64 `json:"c2" validate:"gte=0,ltefield=N2"`
	}
)

func NewSignificanceHandler() *SignificanceHandler {
	return &SignificanceHandler{validate: validator.New()}
}

// POST /api/v1/experiments/significance
func (h *SignificanceHandler) Compare(c echo.Context) error {
	var req SignificanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(significance.Compare(req.N1, req.C1, req.N2, req.C2)))
}
