package process

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachePort caches serialized analytics snapshots.
type CachePort interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// redisCache backs CachePort with Redis.
type redisCache struct {
	client *redis.Client
}

// NewRedisCache wraps a redis client as a CachePort.
func NewRedisCache(client *redis.Client) CachePort {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func analyticsKey(companyID int64, processCode string) string {
	return fmt.Sprintf("process:analytics:%d:%s", companyID, processCode)
}

func encodeAnalytics(a Analytics) (string, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeAnalytics(s string) (Analytics, error) {
	var a Analytics
	if err := json.Unmarshal([]byte(s), &a); err != nil {
		return Analytics{}, err
	}
	return a, nil
}
