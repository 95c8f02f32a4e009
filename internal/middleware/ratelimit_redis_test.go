package middleware_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/heartline/internal/middleware"
)

// newTestRedis connects to REDIS_TEST_URL and skips the test when it is unset.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisCounter_FirstHitCarriesTTL(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	key := "rate_limit:test:" + xid.New().String()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	counter := middleware.NewRedisCounter(client)

	n, err := counter.Hit(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "the key expires from its first hit")
	assert.LessOrEqual(t, ttl, time.Minute)

	n, err = counter.Hit(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ttl, err = client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute, "later hits keep the window")
}

func TestRedisCounter_ExpiredWindowRestarts(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	key := "rate_limit:test:" + xid.New().String()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	counter := middleware.NewRedisCounter(client)
	for i := 0; i < 3; i++ {
		_, err := counter.Hit(ctx, key, 100*time.Millisecond)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return client.Exists(ctx, key).Val() == 0
	}, 2*time.Second, 20*time.Millisecond)

	n, err := counter.Hit(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
