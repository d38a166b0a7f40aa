package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openagora/agora/internal/domain"
)

// SnapshotCache stores the latest clustering snapshot per conversation,
// keyed by conversation id and carrying the snapshot version for freshness
// comparison. A short TTL bounds staleness when the clustering engine stops
// publishing.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache creates a SnapshotCache.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(conversationID uuid.UUID) string {
	return "snapshot:" + conversationID.String()
}

// Get returns the cached snapshot, or (nil, nil) on a miss.
func (c *SnapshotCache) Get(ctx context.Context, conversationID uuid.UUID) (*domain.OpinionSnapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap domain.OpinionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Put stores a snapshot unless the cached one is already at least as fresh.
func (c *SnapshotCache) Put(ctx context.Context, conversationID uuid.UUID, snap *domain.OpinionSnapshot) error {
	current, err := c.Get(ctx, conversationID)
	if err != nil {
		return err
	}
	if current != nil && current.Version >= snap.Version {
		return nil
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := c.client.Set(ctx, snapshotKey(conversationID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}
