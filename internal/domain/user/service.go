package user

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UpsertProfile records the identity resolved by the auth middleware. Empty fields never clear stored values.
func (s *Service) UpsertProfile(ctx context.Context, userID, email, name, avatarURL string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	profile := Profile{
		UserID:      userID,
		Email:       optional(email),
		DisplayName: optional(name),
		AvatarURL:   optional(avatarURL),
	}
	return s.repo.UpsertProfile(ctx, &profile)
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
