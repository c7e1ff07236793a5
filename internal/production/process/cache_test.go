package process

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisCacheForTest(t *testing.T) (CachePort, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return NewRedisCache(client), mr
}

func TestRedisCacheMissThenHit(t *testing.T) {
	cache, _ := newRedisCacheForTest(t)
	ctx := context.Background()
	key := analyticsKey(1, "dyeing")

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, key, `{"total_records":3}`, time.Minute))

	val, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"total_records":3}`, val)
}

func TestRedisCacheTTLExpiry(t *testing.T) {
	cache, mr := newRedisCacheForTest(t)
	ctx := context.Background()
	key := analyticsKey(1, "printing")

	require.NoError(t, cache.Set(ctx, key, "{}", 5*time.Minute))
	mr.FastForward(6 * time.Minute)

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCacheDel(t *testing.T) {
	cache, _ := newRedisCacheForTest(t)
	ctx := context.Background()
	key := analyticsKey(2, "finishing")

	require.NoError(t, cache.Set(ctx, key, "{}", time.Minute))
	require.NoError(t, cache.Del(ctx, key))

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting nothing is a no-op.
	require.NoError(t, cache.Del(ctx))
}

func TestAnalyticsEncodeDecode(t *testing.T) {
	in := Analytics{TotalRecords: 10, Completed: 4, PassRate: 0.8, OpenIssues: 2}
	s, err := encodeAnalytics(in)
	require.NoError(t, err)

	out, err := decodeAnalytics(s)
	require.NoError(t, err)
	require.Equal(t, in, out)
}
