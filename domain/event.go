package domain

import "time"

// CREATE TABLE public.events (
//     id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     title           TEXT NOT NULL,
//     category        TEXT,
//     prefecture      TEXT,
//     event_date      DATE,
//     status          TEXT DEFAULT 'publish',
//     created_at      TIMESTAMPTZ DEFAULT NOW()
// );

// Event is a recommendation candidate. FavoriteCount and ClickCount are
// aggregates computed by the candidate query, not columns of events.
type Event struct {
	ID            uint64     `gorm:"column:id;primaryKey" json:"id"`
	Name          string     `gorm:"column:title" json:"name"`
	Category      string     `gorm:"column:category" json:"category"`
	Region        string     `gorm:"column:prefecture" json:"region"`
	EventDate     *time.Time `gorm:"column:event_date" json:"event_date,omitempty"`
	FavoriteCount int64      `gorm:"column:favorite_count;->" json:"favorite_count"`
	ClickCount    int64      `gorm:"column:click_count;->" json:"click_count"`
}

func (Event) TableName() string {
	return "events"
}

// ViewerContext describes who the ranking is for.
type ViewerContext struct {
	Subject             string   `json:"subject"`
	FavoritedCategories []string `json:"favorited_categories"`
	HomeRegion          string   `json:"home_region"`
	ExcludedItemIDs     []uint64 `json:"excluded_item_ids"`
}

// CREATE TABLE public.favorites (
//     user_id     BIGINT NOT NULL REFERENCES users(id),
//     event_id    BIGINT NOT NULL REFERENCES events(id),
//     created_at  TIMESTAMPTZ DEFAULT NOW(),
//     PRIMARY KEY (user_id, event_id)
// );

type Favorite struct {
	UserID    uint64    `gorm:"column:user_id;primaryKey" json:"user_id"`
	EventID   uint64    `gorm:"column:event_id;primaryKey" json:"event_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}
