package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// RedisCache is a Cache backed by Redis, grounded on the teacher's
// RedisStreamManager: a connection verified at construction time, a
// namespacing prefix, and a TTL applied to every write.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache dials addr and verifies the connection with PING.
func NewRedisCache(addr, password string, db int, prefix string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "connecting to redis", err)
	}
	if prefix == "" {
		prefix = "graphrag:cache:"
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}, nil
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pipelineerr.Wrap(pipelineerr.StorageError, "reading cache key", err)
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "writing cache key", err)
	}
	return nil
}

func (c *RedisCache) Has(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, pipelineerr.Wrap(pipelineerr.StorageError, "checking cache key", err)
	}
	return n > 0, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "deleting cache key", err)
	}
	return nil
}

func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return pipelineerr.Wrap(pipelineerr.StorageError, "clearing cache", err)
		}
	}
	return iter.Err()
}

func (c *RedisCache) Child(name string) interfaces.Cache {
	return &RedisCache{client: c.client, prefix: c.prefix + name + ":", ttl: c.ttl}
}

var _ interfaces.Cache = (*RedisCache)(nil)
