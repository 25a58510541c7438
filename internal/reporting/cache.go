package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Irine7/securetech-sub001/internal/domain"
)

const (
	DefaultCacheTTL = 30 * time.Second
	dashboardKey    = "dashboard:stats"
)

// RedisCache stores the dashboard as JSON under a single key.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key() string {
	return c.prefix + dashboardKey
}

func (c *RedisCache) Get(ctx context.Context) (*domain.DashboardStats, error) {
	data, err := c.client.Get(ctx, c.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var stats domain.DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	if stats.OrdersByStatus == nil {
		stats.OrdersByStatus = map[domain.OrderStatus]int64{}
	}
	if stats.PopularProducts == nil {
		stats.PopularProducts = []domain.PopularProduct{}
	}
	return &stats, nil
}

func (c *RedisCache) Set(ctx context.Context, stats domain.DashboardStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(), data, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key()).Err()
}
