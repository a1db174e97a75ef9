package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"myEventReco/business/experiment"
	"myEventReco/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExperimentConfigRepository struct {
	DB *gorm.DB
}

var _ experiment.ConfigRepository = (*ExperimentConfigRepository)(nil)

func NewExperimentConfigRepository(db *gorm.DB) *ExperimentConfigRepository {
	return &ExperimentConfigRepository{DB: db}
}

func (r *ExperimentConfigRepository) GetConfig(ctx context.Context, experimentKey string) (domain.ExperimentConfig, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExperimentConfig{}, false, fmt.Errorf("context error: %w", err)
	}

	var cfg domain.ExperimentConfig
	err := r.DB.WithContext(ctx).
		Where("experiment_key = ?", experimentKey).
		Take(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ExperimentConfig{}, false, nil
	}
	if err != nil {
		return domain.ExperimentConfig{}, false, fmt.Errorf("failed to query experiment config: %w", err)
	}

	if len(cfg.VariantsRaw) > 0 {
		if err := json.Unmarshal(cfg.VariantsRaw, &cfg.Variants); err != nil {
			return domain.ExperimentConfig{}, false, fmt.Errorf("failed to unmarshal variants: %w", err)
		}
	}
	return cfg, true, nil
}

func (r *ExperimentConfigRepository) UpsertConfig(ctx context.Context, cfg domain.ExperimentConfig) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	raw, err := json.Marshal(cfg.Variants)
	if err != nil {
		return fmt.Errorf("failed to marshal variants: %w", err)
	}
	cfg.VariantsRaw = raw

	err = r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "experiment_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"variants",
				"split",
				"algorithms",
				"weights",
				"updated_at",
			}),
		}).
		Create(&cfg).Error
	if err != nil {
		return fmt.Errorf("failed to upsert experiment config: %w", err)
	}
	return nil
}
