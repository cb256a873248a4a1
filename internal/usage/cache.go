package usage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/drawspace/drawspace-backend/pkg/redis"
)

// Snapshot is the cached usage projection per external identity. It is a
// disposable optimization: absence, staleness or a cache error always falls
// back to recomputing from the usage-event log.
type Snapshot struct {
	CurrentUsage int    `json:"current_usage"`
	PlanLimit    int    `json:"plan_limit"`
	Month        string `json:"month"`
}

// SnapshotCache is the capability the accounting service needs from the
// cache. Implementations may fail; callers treat every error as a miss.
type SnapshotCache interface {
	Get(ctx context.Context, externalID string) (*Snapshot, error)
	Set(ctx context.Context, externalID string, snapshot Snapshot) error
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache wraps the shared redis client as a SnapshotCache.
// A zero ttl keeps entries until the next month-label mismatch overwrites
// them; staleness is detected by month, not by expiry.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) SnapshotCache {
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, externalID string) (*Snapshot, error) {
	raw, err := c.client.Get(ctx, redis.UsageSnapshotKey(externalID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		// Corrupt entries behave like misses; the next Set overwrites them.
		return nil, err
	}
	return &snap, nil
}

func (c *redisCache) Set(ctx context.Context, externalID string, snapshot Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redis.UsageSnapshotKey(externalID), string(payload), c.ttl)
}
