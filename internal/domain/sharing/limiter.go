package sharing

import (
	"context"
	"time"
)

// AttemptLimiter counts failed verifications per share token.
type AttemptLimiter interface {
	Failures(ctx context.Context, token string) (int64, error)
	RecordFailure(ctx context.Context, token string, window time.Duration) (int64, error)
}

type noopLimiter struct{}

func (noopLimiter) Failures(context.Context, string) (int64, error) {
	return 0, nil
}

func (noopLimiter) RecordFailure(context.Context, string, time.Duration) (int64, error) {
	return 0, nil
}
