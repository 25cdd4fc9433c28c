package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotkeeper/config"
	"slotkeeper/infras/redis"
)

func newConfig(server *miniredis.Miniredis) *config.Config {
	cfg := &config.Config{}
	cfg.Cache.Redis.Primary.Host = server.Host()
	cfg.Cache.Redis.Primary.Port = server.Port()
	cfg.Cache.Redis.PoolSize = 2

	return cfg
}

func TestNew(t *testing.T) {
	server := miniredis.RunT(t)

	client, cleanup, err := redis.New(newConfig(server))
	require.NoError(t, err)

	defer cleanup()

	require.NoError(t, client.Set(context.Background(), "appointment:a1", "cached", 0).Err())
	assert.True(t, server.Exists("appointment:a1"))
}

func TestNew_Unreachable(t *testing.T) {
	server := miniredis.RunT(t)
	cfg := newConfig(server)
	server.Close()

	client, cleanup, err := redis.New(cfg)

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Nil(t, cleanup)
}
