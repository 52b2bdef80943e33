// Package cache holds redis-backed read-through caches.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const branchKeyPrefix = "gym:branch-tenant:"

// BranchResolver resolves the tenant owning a branch.
type BranchResolver interface {
	BranchTenant(ctx context.Context, branchID uuid.UUID) (uuid.UUID, error)
}

// BranchTenantCache caches branch → tenant lookups in redis. A branch never
// changes tenant, so entries only expire to bound memory. Redis failures fall
// through to the wrapped resolver; lookup errors are never cached.
type BranchTenantCache struct {
	client *redis.Client
	next   BranchResolver
	ttl    time.Duration
	logger *zap.Logger
}

func NewBranchTenantCache(client *redis.Client, next BranchResolver, ttl time.Duration, logger *zap.Logger) *BranchTenantCache {
	if next == nil {
		panic("branch cache requires a resolver")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchTenantCache{client: client, next: next, ttl: ttl, logger: logger}
}

func (c *BranchTenantCache) BranchTenant(ctx context.Context, branchID uuid.UUID) (uuid.UUID, error) {
	key := branchKeyPrefix + branchID.String()

	if c.client != nil {
		val, err := c.client.Get(ctx, key).Result()
		switch {
		case err == nil:
			if tenantID, perr := uuid.Parse(val); perr == nil {
				return tenantID, nil
			}
			c.logger.Warn("discarding malformed branch cache entry", zap.String("key", key))
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("branch cache read failed", zap.Error(err))
		}
	}

	tenantID, err := c.next.BranchTenant(ctx, branchID)
	if err != nil {
		return uuid.Nil, err
	}

	if c.client != nil {
		if err := c.client.Set(ctx, key, tenantID.String(), c.ttl).Err(); err != nil {
			c.logger.Warn("branch cache write failed", zap.Error(err))
		}
	}
	return tenantID, nil
}

// NewClient builds a redis client from a URL such as redis://localhost:6379/0.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}
