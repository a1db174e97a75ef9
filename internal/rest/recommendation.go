package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"myEventReco/business/recommend"
	"myEventReco/domain"
	"myEventReco/internal/middleware"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecommendationHandler struct {
		validate *validator.Validate
		service  RecommendationService
		cookies  StickyCookies
		timeout  time.Duration
	}

	RecommendationService interface {
		GetRecommendations(ctx context.Context, req recommend.Request) (domain.RecommendationResponse, error)
	}

	CandidateInput struct {
		ID            uint64 `json:"id" validate:"required"`
		Name          string `json:"name" validate:"required"`
		Category      string `json:"category"`
		Region        string `json:"region"`
		EventDate     string `json:"event_date"`
		FavoriteCount int64  `json:"favorite_count" validate:"gte=0"`
		ClickCount    int64  `json:"click_count" validate:"gte=0"`
	}

	ViewerInput struct {
		FavoritedCategories []string `json:"favorited_categories"`
		HomeRegion          string   `json:"home_region"`
		ExcludedItemIDs     []uint64 `json:"excluded_item_ids"`
	}

	RecommendationRequest struct {
		Candidates []CandidateInput   `json:"candidates" validate:"max=1000,dive"`
		Viewer     *ViewerInput       `json:"viewer"`
		Algorithm  string             `json:"algorithm" validate:"omitempty,oneof=default configurable"`
		Weights    map[string]float64 `json:"weights"`
		Limit      int                `json:"limit" validate:"gte=0"`
		Locale     string             `json:"locale" validate:"omitempty,max=16"`
		Experiment string             `json:"experiment" validate:"omitempty,max=64"`
		Variants   []string           `json:"variants" validate:"max=16"`
	}
)

func NewRecommendationHandler(service RecommendationService, cookies StickyCookies) *RecommendationHandler {
	return &RecommendationHandler{
		validate: validator.New(),
		service:  service,
		cookies:  cookies,
		timeout:  10 * time.Second,
	}
}

// POST /api/v1/recommendations
func (h *RecommendationHandler) Recommend(c echo.Context) error {
	var req RecommendationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	candidates, err := toEvents(req.Candidates)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	in := recommend.Request{
		Identity:   middleware.IdentityFrom(c),
		Candidates: candidates,
		Algorithm:  domain.Algorithm(req.Algorithm),
		Weights:    req.Weights,
		Limit:      req.Limit,
		Locale:     req.Locale,
		Experiment: req.Experiment,
		Variants:   req.Variants,
	}
	if req.Viewer != nil {
		in.Viewer = &domain.ViewerContext{
			FavoritedCategories: req.Viewer.FavoritedCategories,
			HomeRegion:          req.Viewer.HomeRegion,
			ExcludedItemIDs:     req.Viewer.ExcludedItemIDs,
		}
	}
	if req.Experiment != "" {
		in.StickyToken = h.cookies.Read(c, req.Experiment)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	resp, err := h.service.GetRecommendations(ctx, in)
	if err != nil {
		return writeError(c, "reco_recommend_failed", err)
	}

	h.cookies.Write(c, resp.Experiment, resp.Variant)
	return c.JSON(http.StatusOK, fres.Response.StatusOK(resp))
}

func toEvents(in []CandidateInput) ([]domain.Event, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]domain.Event, 0, len(in))
	for _, c := range in {
		date, err := parseEventDate(c.EventDate)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", c.ID, err)
		}
		out = append(out, domain.Event{
			ID:            c.ID,
			Name:          c.Name,
			Category:      c.Category,
			Region:        c.Region,
			EventDate:     date,
			FavoriteCount: c.FavoriteCount,
			ClickCount:    c.ClickCount,
		})
	}
	return out, nil
}

// parseEventDate accepts RFC 3339 timestamps and plain dates. Empty means
// unknown.
func parseEventDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid event_date %q", s)
}
