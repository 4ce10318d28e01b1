package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/titipin/backend/domain"
)

// SnapshotCache keeps assembled SessionSnapshots in Redis so repeated reads
// between writes skip the three-way reassembly. Entries are whole-value
// replaced, never patched, matching the snapshot contract.
type SnapshotCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewSnapshotCache creates a Redis-backed snapshot cache.
func NewSnapshotCache(client *redislib.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SnapshotCache{
		client: client,
		prefix: "snapshot:",
		ttl:    ttl,
	}
}

// Get returns the cached snapshot or nil on a miss. Cache failures degrade to
// a miss; the caller reassembles from the primary stores.
func (c *SnapshotCache) Get(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error) {
	result, err := c.client.Get(ctx, c.key(sessionID)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, nil
		}
		return nil, err
	}

	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal([]byte(result), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Set stores the snapshot for the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, snapshot *domain.SessionSnapshot) error {
	if snapshot == nil || snapshot.Session.ID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(snapshot.Session.ID), payload, c.ttl).Err()
}

// Invalidate drops the cached snapshot after any write touching the session.
func (c *SnapshotCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}

func (c *SnapshotCache) key(sessionID string) string {
	return fmt.Sprintf("%s%s", c.prefix, sessionID)
}
