package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"myEventReco/business/recommend"
	"myEventReco/domain"

	"gorm.io/gorm"
)

// EventRepository reads recommendation candidates and viewer context from
// the events, favorites, users and telemetry_events tables.
type EventRepository struct {
	DB *gorm.DB
}

var (
	_ recommend.CandidateRepository = (*EventRepository)(nil)
	_ recommend.ViewerRepository    = (*EventRepository)(nil)
)

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

// ListCandidates returns published events with their favorite and click
// counts, soonest upcoming first; past and undated events follow.
func (r *EventRepository) ListCandidates(ctx context.Context, limit int) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var events []domain.Event
	if err := r.candidates(r.DB.WithContext(ctx), limit).Scan(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return events, nil
}

func (r *EventRepository) candidates(db *gorm.DB, limit int) *gorm.DB {
	favorites := r.DB.Model(&domain.Favorite{}).
		Select("event_id, COUNT(*) AS cnt").
		Group("event_id")
	clicks := r.DB.Model(&domain.TelemetryEvent{}).
		Select("item_id, COUNT(*) AS cnt").
		Where("event_name = ?", domain.EventNameClick).
		Group("item_id")

	return db.
		Table("events AS e").
		Select(`e.id, e.title, e.category, e.prefecture, e.event_date,
			COALESCE(f.cnt, 0) AS favorite_count,
			COALESCE(c.cnt, 0) AS click_count`).
		Joins("LEFT JOIN (?) AS f ON f.event_id = e.id", favorites).
		Joins("LEFT JOIN (?) AS c ON c.item_id = e.id", clicks).
		Where("e.status = ?", "publish").
		Order("(e.event_date >= CURRENT_DATE) IS NOT TRUE, e.event_date ASC NULLS LAST, e.id").
		Limit(limit)
}

// LoadViewer builds the ranking context of a user: categories of favorited
// events, the user's prefecture, and the favorited events themselves as
// exclusions. Unknown users get an empty context.
func (r *EventRepository) LoadViewer(ctx context.Context, userID string) (domain.ViewerContext, error) {
	if err := ctx.Err(); err != nil {
		return domain.ViewerContext{}, fmt.Errorf("context error: %w", err)
	}

	id, err := strconv.ParseUint(userID, 10, 64)
	if err != nil {
		return domain.ViewerContext{}, nil
	}
	viewer := domain.ViewerContext{Subject: "u:" + userID}

	var user struct {
		Prefecture sql.NullString `gorm:"column:prefecture"`
	}
	err = r.DB.WithContext(ctx).
		Table("users").
		Select("prefecture").
		Where("id = ?", id).
		Scan(&user).Error
	if err != nil {
		return domain.ViewerContext{}, fmt.Errorf("failed to query user prefecture: %w", err)
	}
	viewer.HomeRegion = user.Prefecture.String

	err = r.DB.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("user_id = ?", id).
		Pluck("event_id", &viewer.ExcludedItemIDs).Error
	if err != nil {
		return domain.ViewerContext{}, fmt.Errorf("failed to query favorites: %w", err)
	}

	err = r.DB.WithContext(ctx).
		Table("favorites AS f").
		Joins("JOIN events AS e ON e.id = f.event_id").
		Where("f.user_id = ? AND e.category IS NOT NULL", id).
		Distinct().
		Pluck("e.category", &viewer.FavoritedCategories).Error
	if err != nil {
		return domain.ViewerContext{}, fmt.Errorf("failed to query favorite categories: %w", err)
	}

	return viewer, nil
}
