package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"myEventReco/business/experiment"
	"myEventReco/business/recommend"
	"myEventReco/business/telemetry"
	"myEventReco/domain"
	"myEventReco/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTokenKey = "0123456789abcdef"

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextKeySessionID, "sess-1")
	return c, rec
}

type fakeRecommendService struct {
	got  recommend.Request
	resp domain.RecommendationResponse
	err  error
}

func (f *fakeRecommendService) GetRecommendations(ctx context.Context, req recommend.Request) (domain.RecommendationResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeAssignService struct {
	got experiment.AssignInput
	res domain.AssignmentResult
	err error
}

func (f *fakeAssignService) Assign(ctx context.Context, in experiment.AssignInput) (domain.AssignmentResult, error) {
	f.got = in
	return f.res, f.err
}

type fakeTelemetryService struct {
	click    telemetry.ClickInput
	event    telemetry.EventInput
	clickRes domain.ClickResult
	err      error
}

func (f *fakeTelemetryService) RecordClick(ctx context.Context, in telemetry.ClickInput) (domain.ClickResult, error) {
	f.click = in
	return f.clickRes, f.err
}

func (f *fakeTelemetryService) RecordEvent(ctx context.Context, in telemetry.EventInput) error {
	f.event = in
	return f.err
}

func TestRecommendationHandler_Recommend(t *testing.T) {
	svc := &fakeRecommendService{resp: domain.RecommendationResponse{
		Items:      []domain.ScoreResult{{ID: 1, Name: "Jazz Night", Score: 0.8}},
		Algorithm:  domain.AlgorithmDefault,
		Experiment: "reco_algo",
		Variant:    "B",
	}}
	cookies := StickyCookies{Prefix: "reco_exp", Tokens: experiment.NewTokenCodec(testTokenKey)}
	h := NewRecommendationHandler(svc, cookies)

	body := `{
		"candidates": [{"id": 1, "name": "Jazz Night", "category": "music", "event_date": "2026-05-10"}],
		"viewer": {"favorited_categories": ["music"], "home_region": "Tokyo"},
		"weights": {"popularity": 2},
		"limit": 3,
		"experiment": "reco_algo"
	}`
	c, rec := newContext(http.MethodPost, "/api/v1/recommendations", body)

	require.NoError(t, h.Recommend(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Jazz Night"`)

	require.Len(t, svc.got.Candidates, 1)
	require.NotNil(t, svc.got.Candidates[0].EventDate)
	assert.Equal(t, 10, svc.got.Candidates[0].EventDate.Day())
	require.NotNil(t, svc.got.Viewer)
	assert.Equal(t, "Tokyo", svc.got.Viewer.HomeRegion)
	assert.Equal(t, 3, svc.got.Limit)
	assert.Equal(t, "sess-1", svc.got.Identity.SessionID)

	cookiesSet := rec.Result().Cookies()
	require.Len(t, cookiesSet, 1)
	assert.Equal(t, "reco_exp_reco_algo", cookiesSet[0].Name)
	exp, variant, ok := cookies.Tokens.Parse(cookiesSet[0].Value)
	require.True(t, ok)
	assert.Equal(t, "reco_algo", exp)
	assert.Equal(t, "B", variant)
}

func TestRecommendationHandler_CandidatesOmittedVersusEmpty(t *testing.T) {
	svc := &fakeRecommendService{}
	h := NewRecommendationHandler(svc, StickyCookies{Prefix: "reco_exp"})

	c, rec := newContext(http.MethodPost, "/api/v1/recommendations", `{"limit": 3}`)
	require.NoError(t, h.Recommend(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.got.Candidates)

	c, rec = newContext(http.MethodPost, "/api/v1/recommendations", `{"candidates": []}`)
	require.NoError(t, h.Recommend(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, svc.got.Candidates)
	assert.Empty(t, svc.got.Candidates)
}

func TestRecommendationHandler_BadRequests(t *testing.T) {
	h := NewRecommendationHandler(&fakeRecommendService{}, StickyCookies{})

	for name, body := range map[string]string{
		"malformed json":    `{"candidates": [`,
		"unknown algorithm": `{"algorithm": "bandit"}`,
		"negative limit":    `{"limit": -1}`,
		"candidate no name": `{"candidates": [{"id": 1}]}`,
		"bad event date":    `{"candidates": [{"id": 1, "name": "x", "event_date": "next week"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, "/api/v1/recommendations", body)
			require.NoError(t, h.Recommend(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRecommendationHandler_ServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{experiment.ErrInvalidExperiment, http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := NewRecommendationHandler(&fakeRecommendService{err: tc.err}, StickyCookies{})
		c, rec := newContext(http.MethodPost, "/api/v1/recommendations", `{}`)

		require.NoError(t, h.Recommend(c))
		assert.Equal(t, tc.want, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	}
}

func TestExperimentHandler_Assign(t *testing.T) {
	codec := experiment.NewTokenCodec(testTokenKey)
	token, err := codec.Issue("reco_algo", "A")
	require.NoError(t, err)

	svc := &fakeAssignService{res: domain.AssignmentResult{
		Experiment: "reco_algo",
		Variant:    "A",
		Source:     domain.AssignmentSourceExisting,
	}}
	h := NewExperimentHandler(svc, StickyCookies{Prefix: "reco_exp", Tokens: codec})

	c, rec := newContext(http.MethodPost, "/api/v1/experiments/assign", `{"experiment": "reco_algo", "variants": ["A", "B"], "split": 30}`)
	c.Request().AddCookie(&http.Cookie{Name: "reco_exp_reco_algo", Value: token})

	require.NoError(t, h.Assign(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"existing"`)

	assert.Equal(t, token, svc.got.StickyToken)
	assert.Equal(t, 30, svc.got.Split)
	assert.Equal(t, []string{"A", "B"}, svc.got.Variants)
	assert.Equal(t, "sess-1", svc.got.Identity.SessionID)
}

func TestExperimentHandler_AssignValidation(t *testing.T) {
	h := NewExperimentHandler(&fakeAssignService{err: experiment.ErrInvalidExperiment}, StickyCookies{})

	for name, body := range map[string]string{
		"missing experiment": `{"variants": ["A", "B"]}`,
		"split too large":    `{"experiment": "x", "split": 100}`,
		"too few variants":   `{"experiment": "x", "variants": ["A"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, "/api/v1/experiments/assign", body)
			require.NoError(t, h.Assign(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTelemetryHandler_RecordClick(t *testing.T) {
	svc := &fakeTelemetryService{clickRes: domain.ClickResult{Duplicate: true}}
	h := NewTelemetryHandler(svc)

	c, rec := newContext(http.MethodPost, "/api/v1/telemetry/clicks", `{"item_id": 42, "experiment": "reco_algo", "variant": "B"}`)
	require.NoError(t, h.RecordClick(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"duplicate":true`)
	assert.Equal(t, uint64(42), svc.click.ItemID)
	assert.Equal(t, "s:sess-1", svc.click.Subject)

	c, rec = newContext(http.MethodPost, "/api/v1/telemetry/clicks", `{}`)
	require.NoError(t, h.RecordClick(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTelemetryHandler_RecordEvent(t *testing.T) {
	svc := &fakeTelemetryService{}
	h := NewTelemetryHandler(svc)

	c, rec := newContext(http.MethodPost, "/api/v1/telemetry/events", `{"event_name": "favorite", "value": 0}`)
	c.Set(middleware.ContextKeyUserID, "7")
	require.NoError(t, h.RecordEvent(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u:7", svc.event.Subject)
	require.NotNil(t, svc.event.Value)
	assert.Zero(t, *svc.event.Value)

	c, rec = newContext(http.MethodPost, "/api/v1/telemetry/events", `{"value": 1}`)
	require.NoError(t, h.RecordEvent(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignificanceHandler_Compare(t *testing.T) {
	h := NewSignificanceHandler()

	c, rec := newContext(http.MethodPost, "/api/v1/experiments/significance", `{"n1": 1000, "c1": 100, "n2": 1000, "c2": 150}`)
	require.NoError(t, h.Compare(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"significant":true`)

	c, rec = newContext(http.MethodPost, "/api/v1/experiments/significance", `{"n1": 10, "c1": 11, "n2": 10, "c2": 1}`)
	require.NoError(t, h.Compare(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeConfigService struct {
	cfg  domain.ExperimentConfig
	ok   bool
	err  error
	ctxs []context.Context
}

func (f *fakeConfigService) GetConfig(ctx context.Context, key string) (domain.ExperimentConfig, bool, error) {
	f.ctxs = append(f.ctxs, ctx)
	return f.cfg, f.ok, f.err
}

func (f *fakeConfigService) UpsertConfig(ctx context.Context, cfg domain.ExperimentConfig) (domain.ExperimentConfig, error) {
	f.ctxs = append(f.ctxs, ctx)
	if f.err != nil {
		return domain.ExperimentConfig{}, f.err
	}
	f.cfg = cfg
	return cfg, nil
}

type fakeReportService struct {
	report domain.ExperimentReport
	key    string
}

func (f *fakeReportService) Report(ctx context.Context, key string) (domain.ExperimentReport, error) {
	f.key = key
	return f.report, nil
}

func TestExperimentAdminHandler_ConfigCallsHaveDeadline(t *testing.T) {
	configs := &fakeConfigService{ok: true}
	h := NewExperimentAdminHandler(configs, &fakeReportService{})

	c, _ := newContext(http.MethodGet, "/api/v1/admin/experiments/config?experiment=reco_algo", "")
	require.NoError(t, h.GetConfig(c))
	c, _ = newContext(http.MethodPut, "/api/v1/admin/experiments/config", `{"experiment": "reco_algo"}`)
	require.NoError(t, h.UpsertConfig(c))

	require.Len(t, configs.ctxs, 2)
	for _, ctx := range configs.ctxs {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
	}
}

func TestExperimentAdminHandler(t *testing.T) {
	configs := &fakeConfigService{}
	reports := &fakeReportService{report: domain.ExperimentReport{Experiment: "reco_algo"}}
	h := NewExperimentAdminHandler(configs, reports)

	t.Run("get missing", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/api/v1/admin/experiments/config?experiment=reco_algo", "")
		require.NoError(t, h.GetConfig(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("get without key", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/api/v1/admin/experiments/config", "")
		require.NoError(t, h.GetConfig(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upsert", func(t *testing.T) {
		c, rec := newContext(http.MethodPut, "/api/v1/admin/experiments/config",
			`{"experiment": "reco_algo", "variants": ["A", "B"], "split": 50, "algorithms": {"B": "configurable"}}`)
		require.NoError(t, h.UpsertConfig(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"A", "B"}, configs.cfg.Variants)
		a, ok := configs.cfg.AlgorithmFor("B")
		assert.True(t, ok)
		assert.Equal(t, domain.AlgorithmConfigurable, a)
	})

	t.Run("report", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/", "")
		c.SetParamNames("key")
		c.SetParamValues("reco_algo")
		require.NoError(t, h.Report(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "reco_algo", reports.key)
	})
}
