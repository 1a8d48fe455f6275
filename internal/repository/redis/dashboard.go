package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/domain"
)

const dashboardKey = "dashboard:stats"

// DashboardCache implements repository.DashboardCache using Redis.
type DashboardCache struct {
	client *redis.Client
}

// NewDashboardCache creates a new Redis-backed dashboard cache.
func NewDashboardCache(client *redis.Client) *DashboardCache {
	return &DashboardCache{client: client}
}

// Get returns cached stats and whether there were any.
func (c *DashboardCache) Get(ctx context.Context) (*domain.DashboardStats, bool, error) {
	data, err := c.client.Get(ctx, dashboardKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get dashboard: %w", err)
	}

	var stats domain.DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, false, fmt.Errorf("unmarshal dashboard: %w", err)
	}
	return &stats, true, nil
}

// Set caches stats for ttl.
func (c *DashboardCache) Set(ctx context.Context, stats *domain.DashboardStats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal dashboard: %w", err)
	}
	if err := c.client.Set(ctx, dashboardKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set dashboard: %w", err)
	}
	return nil
}

// Invalidate drops cached stats.
func (c *DashboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, dashboardKey).Err(); err != nil {
		return fmt.Errorf("redis del dashboard: %w", err)
	}
	return nil
}
