package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lichess-stats-api/config"

	"github.com/redis/go-redis/v9"
)

const (
	profileCacheKeyPrefix = "lichess:profile:"
	profileCacheTTL       = time.Hour
)

// ProfileCache caches Lichess profile lookups per user.
type ProfileCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewProfileCache constructs a ProfileCache.
func NewProfileCache(rdb *redis.Client) *ProfileCache {
	if rdb == nil {
		rdb = config.Redis
	}
	return &ProfileCache{rdb: rdb, ttl: profileCacheTTL}
}

func profileCacheKey(userID uint) string {
	return fmt.Sprintf("%s%d", profileCacheKeyPrefix, userID)
}

// Get returns the cached profile payload for a user, or ok=false on a miss.
func (c *ProfileCache) Get(ctx context.Context, userID uint) (json.RawMessage, bool, error) {
	data, err := c.rdb.Get(ctx, profileCacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("profile cache get: %w", err)
	}
	return data, true, nil
}

// Set stores the profile payload for a user.
func (c *ProfileCache) Set(ctx context.Context, userID uint, payload json.RawMessage) error {
	if err := c.rdb.Set(ctx, profileCacheKey(userID), []byte(payload), c.ttl).Err(); err != nil {
		return fmt.Errorf("profile cache set: %w", err)
	}
	return nil
}
