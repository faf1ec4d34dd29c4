package child

import (
	"context"
	"errors"

	childdomain "child-growth-go/internal/domain/child"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetChild(ctx context.Context, childID string) (*childdomain.Child, error) {
	var child childdomain.Child
	if err := r.db.WithContext(ctx).Where("id = ?", childID).First(&child).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, childdomain.ErrChildNotFound
		}
		return nil, err
	}
	return &child, nil
}

func (r *PostgresRepository) GetChildByOwner(ctx context.Context, userID, childID string) (*childdomain.Child, error) {
	var child childdomain.Child
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", childID, userID).First(&child).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, childdomain.ErrChildNotFound
		}
		return nil, err
	}
	return &child, nil
}

func (r *PostgresRepository) ListMeasurements(ctx context.Context, childID string) ([]childdomain.GrowthMeasurement, error) {
	var measurements []childdomain.GrowthMeasurement
	if err := r.db.WithContext(ctx).
		Where("child_id = ?", childID).
		Order("measurement_date asc").
		Find(&measurements).Error; err != nil {
		return nil, err
	}
	return measurements, nil
}

func (r *PostgresRepository) ListMilestones(ctx context.Context, childID string) ([]childdomain.Milestone, error) {
	var milestones []childdomain.Milestone
	if err := r.db.WithContext(ctx).
		Where("child_id = ?", childID).
		Order("category asc").
		Find(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}
