package calendar

import (
	"context"
	"encoding/json"
	"time"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*Credential, error)
	Upsert(ctx context.Context, credential *Credential) error
	// UpdateAccessToken keeps the stored refresh token when refreshToken is empty.
	UpdateAccessToken(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error
	Delete(ctx context.Context, userID string) error
}

type TokenProvider interface {
	AuthCodeURL(state, redirectURI string) string
	Exchange(ctx context.Context, code, redirectURI string) (*TokenGrant, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error)
}

type API interface {
	ListCalendars(ctx context.Context, accessToken string) (json.RawMessage, error)
	ListEvents(ctx context.Context, accessToken string, query EventQuery) (json.RawMessage, error)
	CreateEvent(ctx context.Context, accessToken string, event NewEvent) (json.RawMessage, error)
	DeleteEvent(ctx context.Context, accessToken string, ref EventRef) error
}
