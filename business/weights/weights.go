package weights

import (
	"math"
	"strings"

	"myEventReco/domain"
)

const (
	KeySimilarity = "similarity"
	KeyHistory    = "history"
	KeyRecency    = "recency"
	KeyPopularity = "popularity"
	KeyProximity  = "proximity"
)

// Keys lists the factor names in their canonical order.
var Keys = []string{KeySimilarity, KeyHistory, KeyRecency, KeyPopularity, KeyProximity}

const defaultEqualWeight = 0.2

// DefaultVector is the fallback for the default algorithm.
func DefaultVector() domain.WeightVector {
	return domain.WeightVector{
		Similarity: defaultEqualWeight,
		History:    defaultEqualWeight,
		Recency:    defaultEqualWeight,
		Popularity: defaultEqualWeight,
		Proximity:  defaultEqualWeight,
	}
}

// ConfigurableVector is the fallback for the configurable algorithm. It
// leans on category affinity and click history.
func ConfigurableVector() domain.WeightVector {
	return domain.WeightVector{
		Similarity: 0.30,
		History:    0.25,
		Recency:    0.20,
		Popularity: 0.15,
		Proximity:  0.10,
	}
}

// DefaultFor returns the fallback vector of an algorithm.
func DefaultFor(algorithm domain.Algorithm) domain.WeightVector {
	if algorithm == domain.AlgorithmConfigurable {
		return ConfigurableVector()
	}
	return DefaultVector()
}

// Normalize merges raw overrides onto the default vector and L1-normalizes
// the result.
func Normalize(raw map[string]float64) domain.WeightVector {
	return NormalizeFor(domain.AlgorithmDefault, raw)
}

// NormalizeFor is Normalize with the algorithm's own default vector as the
// merge base. Unknown keys, negative, NaN and infinite values are dropped
// and the default value of that factor is kept instead. If the merged sum
// is not positive, or nothing valid was supplied, the default vector is
// returned unchanged.
func NormalizeFor(algorithm domain.Algorithm, raw map[string]float64) domain.WeightVector {
	def := DefaultFor(algorithm)
	merged := def
	applied := 0

	for k, v := range raw {
		if !valid(v) {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(k)) {
		case KeySimilarity:
			merged.Similarity = v
		case KeyHistory:
			merged.History = v
		case KeyRecency:
			merged.Recency = v
		case KeyPopularity:
			merged.Popularity = v
		case KeyProximity:
			merged.Proximity = v
		default:
			continue
		}
		applied++
	}

	sum := merged.Sum()
	if applied == 0 || sum <= 0 {
		return def
	}

	return domain.WeightVector{
		Similarity: merged.Similarity / sum,
		History:    merged.History / sum,
		Recency:    merged.Recency / sum,
		Popularity: merged.Popularity / sum,
		Proximity:  merged.Proximity / sum,
	}
}

// ToMap flattens a vector into its raw map form.
func ToMap(v domain.WeightVector) map[string]float64 {
	return map[string]float64{
		KeySimilarity: v.Similarity,
		KeyHistory:    v.History,
		KeyRecency:    v.Recency,
		KeyPopularity: v.Popularity,
		KeyProximity:  v.Proximity,
	}
}

func valid(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
