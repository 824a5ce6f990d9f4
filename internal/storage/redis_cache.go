package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radiusdt/vector-insights/internal/models"
)

const (
	resultKeyPrefix = "insights:result:"
	latestKey       = "insights:result:latest"
)

// RedisResultCache stores results as JSON with a TTL so several API
// replicas can serve the same analysis.
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisResultCache creates a Redis-backed cache. ttl <= 0 keeps entries
// until evicted by Redis.
func NewRedisResultCache(client *redis.Client, ttl time.Duration) *RedisResultCache {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisResultCache{client: client, ttl: ttl}
}

var _ ResultCache = (*RedisResultCache)(nil)

func resultKey(id string) string {
	return resultKeyPrefix + id
}

func (c *RedisResultCache) Put(ctx context.Context, res *models.Result) error {
	if res == nil || res.ID == "" {
		return fmt.Errorf("cache result: missing id")
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", res.ID, err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, resultKey(res.ID), data, c.ttl)
	pipe.Set(ctx, latestKey, res.ID, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store result %s: %w", res.ID, err)
	}
	return nil
}

func (c *RedisResultCache) Get(ctx context.Context, id string) (*models.Result, error) {
	data, err := c.client.Get(ctx, resultKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load result %s: %w", id, err)
	}

	var res models.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	return &res, nil
}

func (c *RedisResultCache) Latest(ctx context.Context) (*models.Result, error) {
	id, err := c.client.Get(ctx, latestKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load latest result id: %w", err)
	}
	return c.Get(ctx, id)
}
