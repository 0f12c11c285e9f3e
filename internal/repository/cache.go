package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ownerCachePrefix = "ledger:owner:"

// CachedOwnerResolver memoizes username to owner id lookups in Redis. Cache
// failures are logged and fall through to the wrapped resolver.
type CachedOwnerResolver struct {
	next   OwnerResolver
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedOwnerResolver wraps next. A nil client returns next unchanged.
func NewCachedOwnerResolver(next OwnerResolver, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) OwnerResolver {
	if client == nil {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedOwnerResolver{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *CachedOwnerResolver) ResolveOwnerID(ctx context.Context, username string) (int64, error) {
	key := ownerCachePrefix + username

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if id, convErr := strconv.ParseInt(cached, 10, 64); convErr == nil {
			return id, nil
		}
		c.logger.Warn("discarding malformed owner cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("owner cache read failed", zap.Error(err))
	}

	id, err := c.next.ResolveOwnerID(ctx, username)
	if err != nil {
		return 0, err
	}

	if err := c.client.Set(ctx, key, strconv.FormatInt(id, 10), c.ttl).Err(); err != nil {
		c.logger.Warn("owner cache write failed", zap.Error(err))
	}
	return id, nil
}

// Forget drops the cached id for username, so a re-provisioned user is not
// resolved to the id of a previous row.
func (c *CachedOwnerResolver) Forget(ctx context.Context, username string) {
	if err := c.client.Del(ctx, ownerCachePrefix+username).Err(); err != nil {
		c.logger.Warn("owner cache invalidation failed", zap.String("username", username), zap.Error(err))
	}
}
