package scoring

import (
	"sort"
	"time"

	"myEventReco/domain"
)

// DefaultLimit is used when Rank gets a non-positive limit.
const DefaultLimit = 5

// Engine ranks candidate events for a viewer. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	algorithm domain.Algorithm
	renderer  *Renderer
	now       func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source used for recency.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRenderer sets the reason renderer.
func WithRenderer(r *Renderer) Option {
	return func(e *Engine) {
		if r != nil {
			e.renderer = r
		}
	}
}

func NewEngine(algorithm domain.Algorithm, opts ...Option) *Engine {
	if !algorithm.Valid() {
		algorithm = domain.AlgorithmDefault
	}
	e := &Engine{
		algorithm: algorithm,
		renderer:  NewRenderer("ja"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Algorithm() domain.Algorithm {
	return e.algorithm
}

type scored struct {
	event  domain.Event
	score  float64
	reason []ReasonTag
}

// Rank scores candidates against viewer with weights and returns at most
// limit results, best first. Excluded ids are removed before the set maxima
// are computed. weights is expected to be normalized.
func (e *Engine) Rank(candidates []domain.Event, viewer domain.ViewerContext, weights domain.WeightVector, limit int) []domain.ScoreResult {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(candidates) == 0 {
		return []domain.ScoreResult{}
	}

	idx := indexViewer(viewer)
	pool := make([]domain.Event, 0, len(candidates))
	for _, c := range candidates {
		if _, skip := idx.excluded[c.ID]; skip {
			continue
		}
		pool = append(pool, c)
	}
	if len(pool) == 0 {
		return []domain.ScoreResult{}
	}

	maxima := computeMaxima(pool)
	now := e.now()

	list := make([]scored, 0, len(pool))
	for _, c := range pool {
		f := computeFactors(c, idx, maxima, now)
		list = append(list, scored{
			event:  c,
			score:  clamp01(f.weighted(weights)),
			reason: reasonsFor(e.algorithm, f, weights),
		})
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		if list[i].event.Name != list[j].event.Name {
			return list[i].event.Name < list[j].event.Name
		}
		return list[i].event.ID < list[j].event.ID
	})

	if len(list) > limit {
		list = list[:limit]
	}

	out := make([]domain.ScoreResult, 0, len(list))
	for _, s := range list {
		tags := make([]string, 0, len(s.reason))
		for _, t := range s.reason {
			tags = append(tags, string(t))
		}
		out = append(out, domain.ScoreResult{
			ID:      s.event.ID,
			Name:    s.event.Name,
			Score:   s.score,
			Reasons: tags,
			Reason:  e.renderer.Render(s.reason),
		})
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
