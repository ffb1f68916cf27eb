package inboxcache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/inbox"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGetStatsMissesWhenUnset(t *testing.T) {
	cache := New(setupTestRedis(t))

	_, ok := cache.GetStats(context.Background())
	require.False(t, ok)
}

func TestSetStatsThenGetStatsRoundTrips(t *testing.T) {
	cache := New(setupTestRedis(t))
	ctx := context.Background()

	cache.SetStats(ctx, inbox.Stats{UnreadCount: 4, TotalConversations: 11})

	stats, ok := cache.GetStats(ctx)
	require.True(t, ok)
	require.Equal(t, 4, stats.UnreadCount)
	require.Equal(t, 11, stats.TotalConversations)
}

func TestInvalidateClearsCachedStats(t *testing.T) {
	cache := New(setupTestRedis(t))
	ctx := context.Background()

	cache.SetStats(ctx, inbox.Stats{UnreadCount: 2, TotalConversations: 5})
	cache.Invalidate(ctx)

	_, ok := cache.GetStats(ctx)
	require.False(t, ok)
}

func TestNilClientAlwaysMisses(t *testing.T) {
	cache := New(nil)
	ctx := context.Background()

	cache.SetStats(ctx, inbox.Stats{UnreadCount: 1})
	_, ok := cache.GetStats(ctx)
	require.False(t, ok)
}

func TestNilCacheIsSafeToUse(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	cache.SetStats(ctx, inbox.Stats{UnreadCount: 1})
	cache.Invalidate(ctx)
	_, ok := cache.GetStats(ctx)
	require.False(t, ok)
}
