package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "mirastream:avail:"

// redisCache shares availability state across instances.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache with the given entry TTL.
// The connection is verified before use.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (Cache, error) {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &redisCache{client: client, ttl: ttl}, nil
}

func (c *redisCache) Get(ctx context.Context, infoHash string) (bool, bool, error) {
	value, err := c.client.Get(ctx, redisKeyPrefix+normalizeHash(infoHash)).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("redis get failed: %w", err)
	}
	return value == "1", true, nil
}

func (c *redisCache) Set(ctx context.Context, infoHash string, cached bool) error {
	value := "0"
	if cached {
		value = "1"
	}
	if err := c.client.Set(ctx, redisKeyPrefix+normalizeHash(infoHash), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
