package inmemory

import (
	"context"
	"sync"
	"time"
)

const attemptSweepInterval = time.Minute

// AttemptCounter keeps failed share verification counts in process memory.
// Counts are lost on restart and are not shared between instances.
// Expired entries are swept from RecordFailure at most once per attemptSweepInterval.
type AttemptCounter struct {
	mu        sync.RWMutex
	items     map[string]attemptItem
	now       func() time.Time
	lastSweep time.Time
}

type attemptItem struct {
	count     int64
	expiresAt time.Time
}

func NewAttemptCounter() *AttemptCounter {
	return &AttemptCounter{
		items: make(map[string]attemptItem),
		now:   time.Now,
	}
}

func (c *AttemptCounter) Failures(ctx context.Context, token string) (int64, error) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[token]
	c.mu.RUnlock()
	if !ok {
		return 0, nil
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[token]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, token)
		}
		c.mu.Unlock()
		return 0, nil
	}

	return item.count, nil
}

// RecordFailure increments the count. The window starts at the first failure and is not extended.
func (c *AttemptCounter) RecordFailure(ctx context.Context, token string, window time.Duration) (int64, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) >= attemptSweepInterval {
		c.sweepLocked(now)
	}

	item, ok := c.items[token]
	if !ok || !item.expiresAt.After(now) {
		item = attemptItem{expiresAt: now.Add(window)}
	}
	item.count++
	c.items[token] = item

	return item.count, nil
}

func (c *AttemptCounter) sweepLocked(now time.Time) {
	for token, item := range c.items {
		if !item.expiresAt.After(now) {
			delete(c.items, token)
		}
	}
	c.lastSweep = now
}
