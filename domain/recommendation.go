package domain

// Algorithm selects the default vector and the reason thresholds used by the
// scoring engine.
type Algorithm string

const (
	AlgorithmDefault      Algorithm = "default"
	AlgorithmConfigurable Algorithm = "configurable"
)

func (a Algorithm) Valid() bool {
	return a == AlgorithmDefault || a == AlgorithmConfigurable
}

// WeightVector holds the five factor weights. After normalization the
// components are non-negative and sum to 1.
type WeightVector struct {
	Similarity float64 `json:"similarity"`
	History    float64 `json:"history"`
	Recency    float64 `json:"recency"`
	Popularity float64 `json:"popularity"`
	Proximity  float64 `json:"proximity"`
}

func (w WeightVector) Sum() float64 {
	return w.Similarity + w.History + w.Recency + w.Popularity + w.Proximity
}

// ScoreResult is produced per request and never persisted.
type ScoreResult struct {
	ID      uint64   `json:"id"`
	Name    string   `json:"name"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reason_tags"`
	Reason  string   `json:"reason"`
}

type RecommendationResponse struct {
	Items      []ScoreResult `json:"items"`
	Algorithm  Algorithm     `json:"algorithm"`
	Weights    WeightVector  `json:"weights"`
	Experiment string        `json:"experiment,omitempty"`
	Variant    string        `json:"variant,omitempty"`
}
