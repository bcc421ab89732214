package core

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const dashboardCachePrefix = "dashboard:stats:"

// StatsCache stores rendered dashboard stats per user.
// Get returns (nil, nil) on a miss.
type StatsCache interface {
	Get(ctx context.Context, userID int64) (*DashboardStats, error)
	Set(ctx context.Context, userID int64, stats DashboardStats) error
	Invalidate(ctx context.Context, userIDs ...int64) error
	Ping(ctx context.Context) error
}

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// RedisStatsCache implements StatsCache as JSON strings with a TTL.
type RedisStatsCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStatsCache(client redis.UniversalClient, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{client: client, ttl: ttl}
}

func dashboardCacheKey(userID int64) string {
	return dashboardCachePrefix + strconv.FormatInt(userID, 10)
}

func (c *RedisStatsCache) Get(ctx context.Context, userID int64) (*DashboardStats, error) {
	val, err := c.client.Get(ctx, dashboardCacheKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var st DashboardStats
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		// Drop undecodable entries so the next request repopulates.
		_ = c.client.Del(ctx, dashboardCacheKey(userID)).Err()
		return nil, nil
	}
	return &st, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, userID int64, stats DashboardStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, dashboardCacheKey(userID), data, c.ttl).Err()
}

func (c *RedisStatsCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, dashboardCacheKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisStatsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// noopStatsCache is used when REDIS_URL is not configured.
type noopStatsCache struct{}

func (noopStatsCache) Get(context.Context, int64) (*DashboardStats, error) { return nil, nil }
func (noopStatsCache) Set(context.Context, int64, DashboardStats) error    { return nil }
func (noopStatsCache) Invalidate(context.Context, ...int64) error          { return nil }
func (noopStatsCache) Ping(context.Context) error                          { return errCacheDisabled }

var errCacheDisabled = errors.New("cache disabled")
