package calendar

import (
	"context"
	"errors"
	"time"

	calendardomain "child-growth-go/internal/domain/calendar"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*calendardomain.Credential, error) {
	var credential calendardomain.Credential
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, calendardomain.ErrCredentialNotFound
		}
		return nil, err
	}
	return &credential, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, credential *calendardomain.Credential) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "updated_at"}),
		}).
		Create(credential).Error
}

func (r *PostgresRepository) UpdateAccessToken(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"expires_at":   expiresAt,
		"updated_at":   time.Now().UTC(),
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}

	result := r.db.WithContext(ctx).
		Model(&calendardomain.Credential{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return calendardomain.ErrCredentialNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&calendardomain.Credential{}).Error
}
