package recommend

import (
	"context"
	"fmt"
	"time"

	"myEventReco/business/experiment"
	"myEventReco/business/scoring"
	"myEventReco/business/weights"
	"myEventReco/domain"
	"myEventReco/pkg/logger"
	"myEventReco/pkg/metrics"
	"myEventReco/pkg/trace"
)

// ---- Repository interfaces ----

type CandidateRepository interface {
	ListCandidates(ctx context.Context, limit int) ([]domain.Event, error)
}

// ViewerRepository builds the ranking context of an authenticated user.
type ViewerRepository interface {
	LoadViewer(ctx context.Context, userID string) (domain.ViewerContext, error)
}

type VariantAssigner interface {
	Assign(ctx context.Context, in experiment.AssignInput) (domain.AssignmentResult, error)
}

type ConfigRepository interface {
	GetConfig(ctx context.Context, experiment string) (domain.ExperimentConfig, bool, error)
}

type Options struct {
	DefaultLimit   int
	MaxLimit       int
	CandidateLimit int
	Locale         string
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = scoring.DefaultLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = 50
	}
	if o.DefaultLimit > o.MaxLimit {
		o.DefaultLimit = o.MaxLimit
	}
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = 200
	}
	if o.Locale == "" {
		o.Locale = "ja"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Request struct {
	Identity experiment.Identity
	// Candidates, when nil, are loaded from the candidate repository. A
	// non-nil empty slice ranks nothing.
	Candidates []domain.Event
	// Viewer, when nil, is loaded for authenticated users.
	Viewer      *domain.ViewerContext
	Algorithm   domain.Algorithm
	Weights     map[string]float64
	Limit       int
	Locale      string
	Experiment  string
	Variants    []string
	StickyToken string
}

type Service struct {
	candidates CandidateRepository
	viewers    ViewerRepository
	assigner   VariantAssigner
	configs    ConfigRepository
	opts       Options
}

func NewService(
	candidates CandidateRepository,
	viewers ViewerRepository,
	assigner VariantAssigner,
	configs ConfigRepository,
	opts Options,
) *Service {
	return &Service{
		candidates: candidates,
		viewers:    viewers,
		assigner:   assigner,
		configs:    configs,
		opts:       opts.withDefaults(),
	}
}

// GetRecommendations ranks candidates for the requesting viewer. When the
// request names an experiment, the viewer is assigned a variant first and
// that variant's algorithm and weights drive the ranking. Explicit request
// weights override everything else.
func (s *Service) GetRecommendations(ctx context.Context, req Request) (domain.RecommendationResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.RecommendationResponse{}, fmt.Errorf("context error: %w", err)
	}
	tid := trace.TraceIDFromContext(ctx)

	algorithm := req.Algorithm
	if !algorithm.Valid() {
		algorithm = domain.AlgorithmDefault
	}

	var (
		assignment     domain.AssignmentResult
		variantWeights map[string]float64
	)
	if req.Experiment != "" && s.assigner != nil {
		var err error
		assignment, err = s.assigner.Assign(ctx, experiment.AssignInput{
			Identity:    req.Identity,
			Experiment:  req.Experiment,
			Variants:    req.Variants,
			StickyToken: req.StickyToken,
		})
		if err != nil {
			return domain.RecommendationResponse{}, err
		}
		algorithm, variantWeights = s.variantSettings(ctx, assignment, algorithm)
	}

	var w domain.WeightVector
	switch {
	case len(req.Weights) > 0:
		w = weights.NormalizeFor(algorithm, req.Weights)
	case len(variantWeights) > 0:
		w = weights.NormalizeFor(algorithm, variantWeights)
	default:
		w = weights.DefaultFor(algorithm)
	}

	viewer, err := s.viewer(ctx, req)
	if err != nil {
		return domain.RecommendationResponse{}, err
	}

	candidates := req.Candidates
	if candidates == nil && s.candidates != nil {
		candidates, err = s.candidates.ListCandidates(ctx, s.opts.CandidateLimit)
		if err != nil {
			return domain.RecommendationResponse{}, fmt.Errorf("list candidates: %w", err)
		}
	}

	locale := req.Locale
	if locale == "" {
		locale = s.opts.Locale
	}
	engine := scoring.NewEngine(algorithm,
		scoring.WithClock(s.opts.Now),
		scoring.WithRenderer(scoring.NewRenderer(locale)),
	)

	start := time.Now()
	items := engine.Rank(candidates, viewer, w, s.limit(req.Limit))
	metrics.RankLatency.Observe(time.Since(start).Seconds())
	metrics.RecommendationsServed.WithLabelValues(string(algorithm)).Add(float64(len(items)))

	logger.Debug("reco_rank",
		"trace_id", tid,
		"subject", viewer.Subject,
		"algorithm", algorithm,
		"candidates", len(candidates),
		"returned", len(items),
		"experiment", assignment.Experiment,
		"variant", assignment.Variant,
	)

	return domain.RecommendationResponse{
		Items:      items,
		Algorithm:  algorithm,
		Weights:    w,
		Experiment: assignment.Experiment,
		Variant:    assignment.Variant,
	}, nil
}

// variantSettings looks up the algorithm and weights configured for the
// assigned variant. A variant literally named after an algorithm selects it
// when no config entry exists. Config read errors fall back to the request
// algorithm.
func (s *Service) variantSettings(ctx context.Context, a domain.AssignmentResult, fallback domain.Algorithm) (domain.Algorithm, map[string]float64) {
	algorithm := fallback
	if byName := domain.Algorithm(a.Variant); byName.Valid() {
		algorithm = byName
	}
	if s.configs == nil {
		return algorithm, nil
	}

	cfg, ok, err := s.configs.GetConfig(ctx, a.Experiment)
	if err != nil {
		logger.Warn("reco_variant_config_failed",
			"trace_id", trace.TraceIDFromContext(ctx),
			"experiment", a.Experiment,
			"error", err,
		)
		return algorithm, nil
	}
	if !ok {
		return algorithm, nil
	}
	if configured, ok := cfg.AlgorithmFor(a.Variant); ok {
		algorithm = configured
	}
	return algorithm, cfg.WeightsFor(a.Variant)
}

func (s *Service) viewer(ctx context.Context, req Request) (domain.ViewerContext, error) {
	var v domain.ViewerContext
	switch {
	case req.Viewer != nil:
		v = *req.Viewer
	case req.Identity.UserID != "" && s.viewers != nil:
		loaded, err := s.viewers.LoadViewer(ctx, req.Identity.UserID)
		if err != nil {
			return domain.ViewerContext{}, fmt.Errorf("load viewer: %w", err)
		}
		v = loaded
	}
	if v.Subject == "" {
		v.Subject = req.Identity.Subject()
	}
	return v, nil
}

func (s *Service) limit(requested int) int {
	if requested <= 0 {
		return s.opts.DefaultLimit
	}
	if requested > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return requested
}
