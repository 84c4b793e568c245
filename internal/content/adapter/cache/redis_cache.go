package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agency-cms/internal/content/domain/repository"
	"agency-cms/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "content"

// RedisCache caches serialized public query results. Invalidation bumps a
// per-collection generation so stale entries are never read again and simply
// expire.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewRedisCache creates a cache storing entries for ttl
func NewRedisCache(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: log.WithComponent("content-cache")}
}

func generationKey(collection string) string {
	return fmt.Sprintf("%s:%s:gen", keyPrefix, collection)
}

func (c *RedisCache) generation(ctx context.Context, collection string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(collection)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func entryKey(collection string, gen int64, key string) string {
	return fmt.Sprintf("%s:%s:%d:%s", keyPrefix, collection, gen, key)
}

// Get returns a cached value and the generation it was read under. Redis
// failures are logged and read as a miss with generation -1, which Set
// refuses to store.
func (c *RedisCache) Get(ctx context.Context, collection, key string) ([]byte, int64, bool) {
	gen, err := c.generation(ctx, collection)
	if err != nil {
		c.logger.Warnf("Cache generation lookup failed for %s: %v", collection, err)
		return nil, -1, false
	}
	val, err := c.client.Get(ctx, entryKey(collection, gen, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warnf("Cache read failed for %s: %v", collection, err)
		}
		return nil, gen, false
	}
	return val, gen, true
}

// Set stores value under gen, the generation observed before the query ran.
// If Invalidate has bumped the generation since, the entry lands under a key
// that is never read again and expires with the ttl.
func (c *RedisCache) Set(ctx context.Context, collection string, gen int64, key string, value []byte) {
	if gen < 0 {
		return
	}
	if err := c.client.Set(ctx, entryKey(collection, gen, key), value, c.ttl).Err(); err != nil {
		c.logger.Warnf("Cache write failed for %s: %v", collection, err)
	}
}

// Invalidate drops every entry of collection
func (c *RedisCache) Invalidate(ctx context.Context, collection string) {
	if err := c.client.Incr(ctx, generationKey(collection)).Err(); err != nil {
		c.logger.Errorf("Cache invalidation failed for %s: %v", collection, err)
	}
}

// NoopCache is used when Redis is not configured
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, string) ([]byte, int64, bool) { return nil, -1, false }
func (NoopCache) Set(context.Context, string, int64, string, []byte)        {}
func (NoopCache) Invalidate(context.Context, string)                        {}

var (
	_ repository.Cache = (*RedisCache)(nil)
	_ repository.Cache = NoopCache{}
)
