package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoleCache memoizes the global role set per user. Correctness depends on
// explicit invalidation: every operation that inserts, updates or deletes
// a Membership row must call Invalidate for the affected user before
// reporting success. The TTL is only a safety net against missed
// invalidations.
type RoleCache interface {
	Get(ctx context.Context, userID int64) ([]Role, bool, error)
	Put(ctx context.Context, userID int64, roles []Role) error
	Invalidate(ctx context.Context, userID int64) error
	Clear(ctx context.Context) error
}

const roleCachePrefix = "rbac:groles:"

// RedisRoleCache stores global role sets in Redis so invalidation is
// visible to every server instance sharing the store.
type RedisRoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRoleCache constructs a RedisRoleCache.
func NewRedisRoleCache(client *redis.Client, ttl time.Duration) *RedisRoleCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisRoleCache{client: client, ttl: ttl}
}

func roleCacheKey(userID int64) string {
	return fmt.Sprintf("%s%d", roleCachePrefix, userID)
}

// Get returns the cached global role set for userID.
func (c *RedisRoleCache) Get(ctx context.Context, userID int64) ([]Role, bool, error) {
	data, err := c.client.Get(ctx, roleCacheKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("rbac: cache get: %w", err)
	}
	var roles []Role
	if err := json.Unmarshal(data, &roles); err != nil {
		// Treat a corrupt entry as a miss and drop it.
		_ = c.client.Del(ctx, roleCacheKey(userID)).Err()
		return nil, false, nil
	}
	return roles, true, nil
}

// Put stores the global role set for userID.
func (c *RedisRoleCache) Put(ctx context.Context, userID int64, roles []Role) error {
	if roles == nil {
		roles = []Role{}
	}
	data, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("rbac: cache put: %w", err)
	}
	if err := c.client.Set(ctx, roleCacheKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("rbac: cache put: %w", err)
	}
	return nil
}

// Invalidate drops the cached role set for userID.
func (c *RedisRoleCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, roleCacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("rbac: cache invalidate: %w", err)
	}
	return nil
}

// Clear drops every cached role set.
func (c *RedisRoleCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, roleCachePrefix+"*", 200).Result()
		if err != nil {
			return fmt.Errorf("rbac: cache clear: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("rbac: cache clear: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

var _ RoleCache = (*RedisRoleCache)(nil)
