package sharing

import (
	"context"
	"time"
)

type Repository interface {
	// FindActive returns ErrInvalidCredentials when no active row matches both token and code.
	FindActive(ctx context.Context, token, code string) (*ShareLink, error)
	RecordAccess(ctx context.Context, linkID string, at time.Time) error
	Create(ctx context.Context, link *ShareLink) error
	ListByChild(ctx context.Context, childID string) ([]ShareLink, error)
	GetByOwner(ctx context.Context, userID, linkID string) (*ShareLink, error)
	Deactivate(ctx context.Context, linkID string) error
	Delete(ctx context.Context, linkID string) error
}
