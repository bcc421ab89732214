package core

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStatsCache(t *testing.T, ttl time.Duration) (*RedisStatsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStatsCache(client, ttl), mr
}

func TestRedisStatsCache_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestStatsCache(t, time.Minute)

	got, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	st := DashboardStats{Username: "user1", TotalGames: 3, TotalWins: 2, RecentGames: []GameView{}}
	require.NoError(t, cache.Set(ctx, 1, st))
	assert.True(t, mr.Exists("dashboard:stats:1"))

	got, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, st, *got)

	require.NoError(t, cache.Set(ctx, 2, st))
	require.NoError(t, cache.Invalidate(ctx, 1, 2, 3))
	assert.False(t, mr.Exists("dashboard:stats:1"))
	assert.False(t, mr.Exists("dashboard:stats:2"))
}

func TestRedisStatsCache_Expires(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestStatsCache(t, 30*time.Second)

	require.NoError(t, cache.Set(ctx, 1, DashboardStats{Username: "user1"}))
	mr.FastForward(31 * time.Second)

	got, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStatsCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestStatsCache(t, time.Minute)
	require.NoError(t, mr.Set("dashboard:stats:9", "{not json"))

	got, err := cache.Get(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("dashboard:stats:9"))
}

func TestNewRedisClient(t *testing.T) {
	_, err := NewRedisClient("")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client, err := NewRedisClient("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, NewRedisStatsCache(client, time.Minute).Ping(context.Background()))
}
