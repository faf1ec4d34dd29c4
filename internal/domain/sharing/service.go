package sharing

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	childdomain "child-growth-go/internal/domain/child"
	"github.com/google/uuid"
)

const (
	accessCodeLength  = 6
	shareTokenBytes   = 32
	createLinkRetries = 5

	defaultAttemptWindow = 15 * time.Minute
)

type ChildReader interface {
	GetOwnedChild(ctx context.Context, userID, childID string) (*childdomain.Child, error)
	Snapshot(ctx context.Context, childID string) (*childdomain.Snapshot, error)
}

type Options struct {
	PublicBaseURL    string
	MaxExpiresInDays int
	// MaxAttempts caps failed verifications per token within AttemptWindow. Zero disables the cap.
	MaxAttempts   int
	AttemptWindow time.Duration
}

type Service struct {
	repo     Repository
	children ChildReader
	limiter  AttemptLimiter
	opts     Options
	now      func() time.Time
}

func NewService(repo Repository, children ChildReader, limiter AttemptLimiter, opts Options) *Service {
	if limiter == nil {
		limiter = noopLimiter{}
	}
	if opts.MaxExpiresInDays <= 0 {
		opts.MaxExpiresInDays = MaxExpiresInDays
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 0
		limiter = noopLimiter{}
	}
	if opts.AttemptWindow <= 0 {
		opts.AttemptWindow = defaultAttemptWindow
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")

	return &Service{
		repo:     repo,
		children: children,
		limiter:  limiter,
		opts:     opts,
		now:      time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) ShareURL(token string) string {
	return s.opts.PublicBaseURL + "/shared/" + token
}

// Verify checks a doctor-facing token and access code and returns the child's read-only snapshot.
// A failed snapshot read leaves the access counter untouched.
func (s *Service) Verify(ctx context.Context, token, code string) (*childdomain.Snapshot, error) {
	code = NormalizeCode(code)
	if token == "" {
		return nil, ErrInvalidCredentials
	}

	if s.opts.MaxAttempts > 0 {
		failures, err := s.limiter.Failures(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("read attempt counter: %w", err)
		}
		if failures >= int64(s.opts.MaxAttempts) {
			return nil, ErrTooManyAttempts
		}
	}

	if code == "" {
		return nil, s.fail(ctx, token)
	}

	link, err := s.repo.FindActive(ctx, token, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, s.fail(ctx, token)
		}
		return nil, err
	}

	now := s.now().UTC()
	if !now.Before(link.ExpiresAt) {
		return nil, ErrExpired
	}

	snapshot, err := s.children.Snapshot(ctx, link.ChildID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RecordAccess(ctx, link.ID, now); err != nil {
		return nil, fmt.Errorf("record access: %w", err)
	}

	return snapshot, nil
}

func (s *Service) fail(ctx context.Context, token string) error {
	if _, err := s.limiter.RecordFailure(ctx, token, s.opts.AttemptWindow); err != nil {
		return fmt.Errorf("record failed attempt: %w", err)
	}
	return ErrInvalidCredentials
}

func (s *Service) CreateLink(ctx context.Context, input CreateLinkInput) (*ShareLink, error) {
	days := input.ExpiresInDays
	if days == 0 {
		days = DefaultExpiresInDays
	}
	if days < 0 || days > s.opts.MaxExpiresInDays {
		return nil, ErrInvalidExpiry
	}

	if _, err := s.children.GetOwnedChild(ctx, input.UserID, input.ChildID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	for i := 0; i < createLinkRetries; i++ {
		token, err := generateToken()
		if err != nil {
			return nil, err
		}
		code, err := generateCode(accessCodeLength)
		if err != nil {
			return nil, err
		}

		link := ShareLink{
			ID:          uuid.NewString(),
			ChildID:     input.ChildID,
			CreatedBy:   input.UserID,
			ShareToken:  token,
			AccessCode:  code,
			ExpiresAt:   now.AddDate(0, 0, days),
			IsActive:    true,
			DoctorName:  optionalString(input.DoctorName),
			DoctorEmail: optionalString(input.DoctorEmail),
		}

		err = s.repo.Create(ctx, &link)
		if errors.Is(err, ErrTokenConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &link, nil
	}

	return nil, ErrTokenGenerationFailed
}

func (s *Service) ListLinks(ctx context.Context, userID, childID string) ([]ShareLink, error) {
	if _, err := s.children.GetOwnedChild(ctx, userID, childID); err != nil {
		return nil, err
	}

	links, err := s.repo.ListByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []ShareLink{}
	}
	return links, nil
}

func (s *Service) RevokeLink(ctx context.Context, userID, linkID string) (*ShareLink, error) {
	link, err := s.repo.GetByOwner(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}
	if !link.IsActive {
		return link, nil
	}

	if err := s.repo.Deactivate(ctx, link.ID); err != nil {
		return nil, err
	}
	link.IsActive = false
	return link, nil
}

func (s *Service) DeleteLink(ctx context.Context, userID, linkID string) error {
	link, err := s.repo.GetByOwner(ctx, userID, linkID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, link.ID)
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func generateToken() (string, error) {
	b := make([]byte, shareTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func generateCode(length int) (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	max := big.NewInt(int64(len(alphabet)))

	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}

	return builder.String(), nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
