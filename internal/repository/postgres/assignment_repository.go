package postgres

import (
	"context"
	"errors"
	"fmt"

	"myEventReco/business/experiment"
	"myEventReco/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

var _ experiment.AssignmentRepository = (*AssignmentRepository)(nil)

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) FetchAssignment(ctx context.Context, experimentKey, scope, subjectID string) (domain.Assignment, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Assignment{}, false, fmt.Errorf("context error: %w", err)
	}

	var a domain.Assignment
	err := r.DB.WithContext(ctx).
		Where("experiment_key = ? AND subject_scope = ? AND subject_id = ?", experimentKey, scope, subjectID).
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Assignment{}, false, nil
	}
	if err != nil {
		return domain.Assignment{}, false, fmt.Errorf("failed to query assignment: %w", err)
	}
	return a, true, nil
}

// UpsertAssignment is idempotent; the last write for a subject wins.
func (r *AssignmentRepository) UpsertAssignment(ctx context.Context, a domain.Assignment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "experiment_key"},
				{Name: "subject_scope"},
				{Name: "subject_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"variant", "assigned_at"}),
		}).
		Create(&a).Error
	if err != nil {
		return fmt.Errorf("failed to upsert assignment: %w", err)
	}
	return nil
}
