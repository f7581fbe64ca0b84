package identity

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	id "clearport/pkg/domain"
	"clearport/pkg/requestcontext"
)

const (
	roleKeyPrefix = "principal:role:"
	roleCacheTTL  = 5 * time.Minute
)

// RedisRoleCache caches principal roles in Redis. Misses and Redis errors
// both read as cache misses; the resolver falls through to the user store.
type RedisRoleCache struct {
	client *redis.Client
}

func NewRedisRoleCache(client *redis.Client) *RedisRoleCache {
	return &RedisRoleCache{client: client}
}

func (c *RedisRoleCache) Get(ctx context.Context, userID id.UserID) (requestcontext.Role, bool) {
	val, err := c.client.Get(ctx, roleKeyPrefix+userID.String()).Result()
	if err != nil {
		return "", false
	}
	return requestcontext.Role(val), true
}

func (c *RedisRoleCache) Set(ctx context.Context, userID id.UserID, role requestcontext.Role) {
	// Best effort; a failed cache write only costs a store lookup later.
	_ = c.client.Set(ctx, roleKeyPrefix+userID.String(), string(role), roleCacheTTL).Err()
}
