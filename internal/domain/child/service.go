package child

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetOwnedChild(ctx context.Context, userID, childID string) (*Child, error) {
	if userID == "" || childID == "" {
		return nil, ErrChildNotFound
	}
	return s.repo.GetChildByOwner(ctx, userID, childID)
}

func (s *Service) Snapshot(ctx context.Context, childID string) (*Snapshot, error) {
	c, err := s.repo.GetChild(ctx, childID)
	if err != nil {
		return nil, err
	}

	measurements, err := s.repo.ListMeasurements(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	if measurements == nil {
		measurements = []GrowthMeasurement{}
	}

	milestones, err := s.repo.ListMilestones(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	if milestones == nil {
		milestones = []Milestone{}
	}

	return &Snapshot{
		Child:        *c,
		Measurements: measurements,
		Milestones:   milestones,
	}, nil
}
