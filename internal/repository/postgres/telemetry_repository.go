package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myEventReco/business/significance"
	"myEventReco/business/telemetry"
	"myEventReco/domain"

	"gorm.io/gorm"
)

type TelemetryRepository struct {
	DB *gorm.DB
}

var (
	_ telemetry.Repository          = (*TelemetryRepository)(nil)
	_ significance.StatsRepository = (*TelemetryRepository)(nil)
)

func NewTelemetryRepository(db *gorm.DB) *TelemetryRepository {
	return &TelemetryRepository{DB: db}
}

func (r *TelemetryRepository) InsertTelemetry(ctx context.Context, ev *domain.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to insert telemetry event: %w", err)
	}
	return nil
}

// QueryRecentClick returns the time of the latest click by subject on item.
func (r *TelemetryRepository) QueryRecentClick(ctx context.Context, itemID uint64, subject string) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, fmt.Errorf("context error: %w", err)
	}

	var ev domain.TelemetryEvent
	err := r.DB.WithContext(ctx).
		Select("created_at").
		Where("item_id = ? AND subject_id = ? AND event_name = ?", itemID, subject, domain.EventNameClick).
		Order("created_at DESC").
		Take(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query recent click: %w", err)
	}
	return ev.CreatedAt, true, nil
}

// AggregateVariantStats counts exposures and clicks per variant. Rows
// without a variant are not part of any arm and are skipped.
func (r *TelemetryRepository) AggregateVariantStats(ctx context.Context, experimentKey string) ([]domain.VariantStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.VariantStats
	err := r.DB.WithContext(ctx).
		Model(&domain.TelemetryEvent{}).
		Select(`experiment_key, variant,
			SUM(CASE WHEN event_name = ? THEN 1 ELSE 0 END) AS exposures,
			SUM(CASE WHEN event_name = ? THEN 1 ELSE 0 END) AS clicks`,
			domain.EventNameExposure, domain.EventNameClick).
		Where("experiment_key = ? AND variant <> ''", experimentKey).
		Group("experiment_key, variant").
		Order("variant").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate variant stats: %w", err)
	}
	return rows, nil
}
