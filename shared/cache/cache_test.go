package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotkeeper/infras/otel/mocks"
	"slotkeeper/shared/cache"
)

type cachedAppointment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func newCache(t *testing.T) (cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedisCache(client, mocks.NewOtel()), server
}

func TestRedisCache_SaveGetDelete(t *testing.T) {
	c, server := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "appointment:get:a1", cachedAppointment{ID: "a1", Status: "scheduled"}, 60))

	var got cachedAppointment
	require.NoError(t, c.Get(ctx, "appointment:get:a1", &got))
	assert.Equal(t, "scheduled", got.Status)

	assert.Equal(t, 60*time.Second, server.TTL("appointment:get:a1"))

	require.NoError(t, c.Delete(ctx, "appointment:get:a1"))

	err := c.Get(ctx, "appointment:get:a1", &got)
	assert.ErrorIs(t, err, cache.Nil)
}

func TestRedisCache_GetString(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "k", "plain", 10))

	var got string
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "plain", got)
}

func TestRedisCache_GetCorruptValue(t *testing.T) {
	c, server := newCache(t)

	require.NoError(t, server.Set("k", "{not json"))

	var got cachedAppointment
	err := c.Get(context.Background(), "k", &got)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, cache.Nil)
}

func TestRedisCache_Increment(t *testing.T) {
	c, server := newCache(t)
	ctx := context.Background()

	first, err := c.Increment(ctx, "rate_limit:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, first)

	server.FastForward(10 * time.Second)

	second, err := c.Increment(ctx, "rate_limit:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, second)

	// the window is fixed from the first hit
	assert.Equal(t, 50*time.Second, server.TTL("rate_limit:1.2.3.4"))

	server.FastForward(time.Minute)

	third, err := c.Increment(ctx, "rate_limit:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, third)
}
