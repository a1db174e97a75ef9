package scoring

import (
	"math"
	"strings"
	"time"

	"myEventReco/domain"
)

const recencyHalfWindowDays = 30.0

// factors holds the five per-candidate signals, each in [0,1].
type factors struct {
	similarity float64
	history    float64
	recency    float64
	popularity float64
	proximity  float64
}

func (f factors) weighted(w domain.WeightVector) float64 {
	return w.Similarity*f.similarity +
		w.History*f.history +
		w.Recency*f.recency +
		w.Popularity*f.popularity +
		w.Proximity*f.proximity
}

// setMaxima are computed once per Rank call over the filtered candidate set.
type setMaxima struct {
	favorites int64
	clicks    int64
}

func computeMaxima(candidates []domain.Event) setMaxima {
	var m setMaxima
	for _, c := range candidates {
		if c.FavoriteCount > m.favorites {
			m.favorites = c.FavoriteCount
		}
		if c.ClickCount > m.clicks {
			m.clicks = c.ClickCount
		}
	}
	return m
}

func ratio(v, maxVal int64) float64 {
	if v <= 0 {
		return 0
	}
	if maxVal <= 0 {
		maxVal = 1
	}
	return math.Min(1, float64(v)/float64(maxVal))
}

// recencyScore is 1/(1+days/30) with future dates clamped to day zero.
func recencyScore(date *time.Time, now time.Time) float64 {
	if date == nil || date.IsZero() {
		return 0
	}
	days := now.Sub(*date).Hours() / 24
	if days < 0 {
		days = 0
	}
	return 1 / (1 + days/recencyHalfWindowDays)
}

func similarityScore(category string, favorited map[string]struct{}) float64 {
	if len(favorited) == 0 || category == "" {
		return 0
	}
	if _, ok := favorited[category]; ok {
		return 1
	}
	return 0
}

func proximityScore(region, home string) float64 {
	region = strings.TrimSpace(region)
	home = strings.TrimSpace(home)
	if region == "" || home == "" {
		return 0
	}
	if strings.EqualFold(region, home) {
		return 1
	}
	return 0
}

func computeFactors(c domain.Event, viewer viewerIndex, m setMaxima, now time.Time) factors {
	return factors{
		similarity: similarityScore(c.Category, viewer.categories),
		history:    ratio(c.ClickCount, m.clicks),
		recency:    recencyScore(c.EventDate, now),
		popularity: ratio(c.FavoriteCount, m.favorites),
		proximity:  proximityScore(c.Region, viewer.homeRegion),
	}
}

// viewerIndex is the ViewerContext turned into lookup sets.
type viewerIndex struct {
	categories map[string]struct{}
	excluded   map[uint64]struct{}
	homeRegion string
}

func indexViewer(v domain.ViewerContext) viewerIndex {
	idx := viewerIndex{
		categories: make(map[string]struct{}, len(v.FavoritedCategories)),
		excluded:   make(map[uint64]struct{}, len(v.ExcludedItemIDs)),
		homeRegion: v.HomeRegion,
	}
	for _, c := range v.FavoritedCategories {
		if c != "" {
			idx.categories[c] = struct{}{}
		}
	}
	for _, id := range v.ExcludedItemIDs {
		idx.excluded[id] = struct{}{}
	}
	return idx
}
