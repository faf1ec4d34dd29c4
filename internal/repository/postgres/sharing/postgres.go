package sharing

import (
	"context"
	"errors"
	"time"

	sharingdomain "child-growth-go/internal/domain/sharing"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindActive(ctx context.Context, token, code string) (*sharingdomain.ShareLink, error) {
	var link sharingdomain.ShareLink
	err := r.db.WithContext(ctx).
		Where("share_token = ? AND access_code = ? AND is_active = ?", token, code, true).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sharingdomain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// RecordAccess increments the counter in the database so concurrent verifications never lose an update.
func (r *PostgresRepository) RecordAccess(ctx context.Context, linkID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&sharingdomain.ShareLink{}).
		Where("id = ?", linkID).
		Updates(map[string]interface{}{
			"access_count":     gorm.Expr("access_count + ?", 1),
			"last_accessed_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sharingdomain.ErrShareLinkNotFound
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, link *sharingdomain.ShareLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return sharingdomain.ErrTokenConflict
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) ListByChild(ctx context.Context, childID string) ([]sharingdomain.ShareLink, error) {
	var links []sharingdomain.ShareLink
	if err := r.db.WithContext(ctx).
		Where("child_id = ?", childID).
		Order("created_at desc").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *PostgresRepository) GetByOwner(ctx context.Context, userID, linkID string) (*sharingdomain.ShareLink, error) {
	var link sharingdomain.ShareLink
	err := r.db.WithContext(ctx).
		Table("share_links").
		Select("share_links.*").
		Joins("join children on children.id = share_links.child_id").
		Where("share_links.id = ? AND children.user_id = ?", linkID, userID).
		Limit(1).
		Find(&link).Error
	if err != nil {
		return nil, err
	}
	if link.ID == "" {
		return nil, sharingdomain.ErrShareLinkNotFound
	}
	return &link, nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, linkID string) error {
	result := r.db.WithContext(ctx).
		Model(&sharingdomain.ShareLink{}).
		Where("id = ?", linkID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sharingdomain.ErrShareLinkNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, linkID string) error {
	result := r.db.WithContext(ctx).Where("id = ?", linkID).Delete(&sharingdomain.ShareLink{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sharingdomain.ErrShareLinkNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
