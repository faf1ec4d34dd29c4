package child

import "context"

type Repository interface {
	GetChild(ctx context.Context, childID string) (*Child, error)
	GetChildByOwner(ctx context.Context, userID, childID string) (*Child, error)
	ListMeasurements(ctx context.Context, childID string) ([]GrowthMeasurement, error)
	ListMilestones(ctx context.Context, childID string) ([]Milestone, error)
}
