package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"child-growth-go/pkg/logger"
)

// Broker keeps one valid Google Calendar bearer token per user and gates the calendar passthrough on it.
// Concurrent refreshes for the same user are not coordinated; the last successful write wins.
type Broker struct {
	repo     Repository
	provider TokenProvider
	api      API
	log      logger.Logger
	now      func() time.Time
}

func NewBroker(repo Repository, provider TokenProvider, api API, log logger.Logger) *Broker {
	return &Broker{
		repo:     repo,
		provider: provider,
		api:      api,
		log:      log,
		now:      time.Now,
	}
}

func (b *Broker) WithClock(now func() time.Time) *Broker {
	b.now = now
	return b
}

func (b *Broker) AuthURL(userID, redirectURI string) (string, error) {
	redirectURI = strings.TrimSpace(redirectURI)
	if redirectURI == "" {
		return "", ErrMissingRedirectURI
	}
	return b.provider.AuthCodeURL(userID, redirectURI), nil
}

func (b *Broker) ExchangeAuthorizationCode(ctx context.Context, userID, code, redirectURI string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrMissingCode
	}
	redirectURI = strings.TrimSpace(redirectURI)
	if redirectURI == "" {
		return ErrMissingRedirectURI
	}

	grant, err := b.provider.Exchange(ctx, code, redirectURI)
	if err != nil {
		return err
	}

	refreshToken := grant.RefreshToken
	if refreshToken == "" {
		existing, err := b.repo.Get(ctx, userID)
		switch {
		case err == nil:
			refreshToken = existing.RefreshToken
		case errors.Is(err, ErrCredentialNotFound):
			b.log.Warn("calendar.exchange: provider issued no refresh token", "user_id", userID)
		default:
			return fmt.Errorf("load credential: %w", err)
		}
	}

	credential := Credential{
		UserID:       userID,
		AccessToken:  grant.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    b.now().UTC().Add(grant.ExpiresIn),
	}
	if err := b.repo.Upsert(ctx, &credential); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// GetValidAccessToken returns an empty token when the user is not connected or the refresh was rejected.
// A rejected refresh leaves the stored credential untouched.
func (b *Broker) GetValidAccessToken(ctx context.Context, userID string) (string, error) {
	credential, err := b.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load credential: %w", err)
	}

	now := b.now().UTC()
	if !credential.Expired(now) {
		return credential.AccessToken, nil
	}

	if credential.RefreshToken == "" {
		b.log.Warn("calendar.token: expired without refresh token", "user_id", userID)
		return "", nil
	}

	b.log.Debug("calendar.token: refreshing", "user_id", userID)
	grant, err := b.provider.Refresh(ctx, credential.RefreshToken)
	if err != nil {
		b.log.BusinessError("calendar.token: refresh failed", err, "user_id", userID)
		return "", nil
	}

	expiresAt := now.Add(grant.ExpiresIn)
	if err := b.repo.UpdateAccessToken(ctx, userID, grant.AccessToken, grant.RefreshToken, expiresAt); err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			// disconnected while the refresh was in flight
			return "", nil
		}
		return "", fmt.Errorf("store refreshed token: %w", err)
	}

	return grant.AccessToken, nil
}

func (b *Broker) Status(ctx context.Context, userID string) (bool, error) {
	token, err := b.GetValidAccessToken(ctx, userID)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

func (b *Broker) Disconnect(ctx context.Context, userID string) error {
	return b.repo.Delete(ctx, userID)
}

func (b *Broker) ListCalendars(ctx context.Context, userID string) (json.RawMessage, error) {
	token, err := b.requireToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.api.ListCalendars(ctx, token)
}

func (b *Broker) ListEvents(ctx context.Context, userID string, query EventQuery) (json.RawMessage, error) {
	token, err := b.requireToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := b.now().UTC()
	if query.CalendarID == "" {
		query.CalendarID = DefaultCalendarID
	}
	if query.TimeMin.IsZero() {
		query.TimeMin = now
	}
	if query.TimeMax.IsZero() {
		query.TimeMax = now.Add(DefaultEventWindow)
	}

	return b.api.ListEvents(ctx, token, query)
}

func (b *Broker) CreateEvent(ctx context.Context, userID string, event NewEvent) (json.RawMessage, error) {
	token, err := b.requireToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	if event.CalendarID == "" {
		event.CalendarID = DefaultCalendarID
	}
	return b.api.CreateEvent(ctx, token, event)
}

func (b *Broker) DeleteEvent(ctx context.Context, userID string, ref EventRef) error {
	if strings.TrimSpace(ref.EventID) == "" {
		return ErrMissingEventID
	}
	token, err := b.requireToken(ctx, userID)
	if err != nil {
		return err
	}
	if ref.CalendarID == "" {
		ref.CalendarID = DefaultCalendarID
	}
	return b.api.DeleteEvent(ctx, token, ref)
}

func (b *Broker) requireToken(ctx context.Context, userID string) (string, error) {
	token, err := b.GetValidAccessToken(ctx, userID)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNotConnected
	}
	return token, nil
}
