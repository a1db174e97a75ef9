package scoring

import (
	"strings"

	"myEventReco/domain"
)

// ReasonTag names why an item was recommended. Tags are presentation-free;
// a Renderer turns them into text.
type ReasonTag string

const (
	ReasonSimilarCategory ReasonTag = "similar_category"
	ReasonClickHistory    ReasonTag = "click_history"
	ReasonRecent          ReasonTag = "recent"
	ReasonPopular         ReasonTag = "popular"
	ReasonNearby          ReasonTag = "nearby"
	ReasonFallback        ReasonTag = "fallback"
)

const (
	defaultNotableThreshold    = 0.5
	defaultPopularityThreshold = 0.6
	configurableThreshold      = 0.3
)

// reasonsFor returns the notable factors of one candidate in a fixed order.
func reasonsFor(algorithm domain.Algorithm, f factors, w domain.WeightVector) []ReasonTag {
	type check struct {
		tag    ReasonTag
		score  float64
		weight float64
		floor  float64
	}
	checks := []check{
		{ReasonSimilarCategory, f.similarity, w.Similarity, defaultNotableThreshold},
		{ReasonClickHistory, f.history, w.History, defaultNotableThreshold},
		{ReasonRecent, f.recency, w.Recency, defaultNotableThreshold},
		{ReasonPopular, f.popularity, w.Popularity, defaultPopularityThreshold},
		{ReasonNearby, f.proximity, w.Proximity, defaultNotableThreshold},
	}

	seen := make(map[ReasonTag]struct{}, len(checks))
	tags := make([]ReasonTag, 0, len(checks))
	for _, c := range checks {
		var notable bool
		if algorithm == domain.AlgorithmConfigurable {
			// relative to weight; a factor switched off by weight 0 never explains an item
			notable = c.weight > 0 && c.score*c.weight >= configurableThreshold*c.weight
		} else {
			notable = c.score >= c.floor
		}
		if !notable {
			continue
		}
		if _, dup := seen[c.tag]; dup {
			continue
		}
		seen[c.tag] = struct{}{}
		tags = append(tags, c.tag)
	}

	if len(tags) == 0 {
		tags = append(tags, ReasonFallback)
	}
	return tags
}

// Renderer maps reason tags to locale strings.
type Renderer struct {
	messages  map[ReasonTag]string
	separator string
}

var localeMessages = map[string]map[ReasonTag]string{
	"ja": {
		ReasonSimilarCategory: "お気に入りのカテゴリに近いイベント",
		ReasonClickHistory:    "よく閲覧されているイベント",
		ReasonRecent:          "開催日が近いイベント",
		ReasonPopular:         "人気のイベント",
		ReasonNearby:          "お住まいの地域で開催",
		ReasonFallback:        "おすすめのイベント",
	},
	"en": {
		ReasonSimilarCategory: "Similar to categories you like",
		ReasonClickHistory:    "Frequently viewed",
		ReasonRecent:          "Happening soon",
		ReasonPopular:         "Popular with other users",
		ReasonNearby:          "In your area",
		ReasonFallback:        "Recommended for you",
	},
}

var localeSeparators = map[string]string{
	"ja": "・",
	"en": ", ",
}

// NewRenderer returns a renderer for locale, falling back to Japanese.
func NewRenderer(locale string) *Renderer {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	msgs, ok := localeMessages[locale]
	if !ok {
		locale = "ja"
		msgs = localeMessages[locale]
	}
	return &Renderer{messages: msgs, separator: localeSeparators[locale]}
}

// Render joins the messages of tags, skipping duplicates.
func (r *Renderer) Render(tags []ReasonTag) string {
	seen := make(map[string]struct{}, len(tags))
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		msg, ok := r.messages[t]
		if !ok {
			msg = string(t)
		}
		if _, dup := seen[msg]; dup {
			continue
		}
		seen[msg] = struct{}{}
		parts = append(parts, msg)
	}
	return strings.Join(parts, r.separator)
}
