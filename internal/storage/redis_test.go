package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStorage on it
func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisStorage(client, ttl), mr
}

func TestRedisGet_Success(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	require.NoError(t, mr.Set("shopEasy-cart", `{"items":[]}`))

	data, err := s.Get(context.Background(), "shopEasy-cart")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(data))
}

func TestRedisGet_Missing(t *testing.T) {
	s, _ := setupTestRedis(t, 0)

	data, err := s.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, data)
}

func TestRedisSet_Success(t *testing.T) {
	s, mr := setupTestRedis(t, 0)

	err := s.Set(context.Background(), "shopEasy-cart", []byte(`{"items":[]}`))
	require.NoError(t, err)

	stored, err := mr.Get("shopEasy-cart")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, stored)
	assert.Equal(t, time.Duration(0), mr.TTL("shopEasy-cart"))
}

func TestRedisSet_WithTTL(t *testing.T) {
	s, mr := setupTestRedis(t, 15*time.Minute)

	require.NoError(t, s.Set(context.Background(), "k", []byte("v")))

	ttl := mr.TTL("k")
	assert.True(t, ttl >= 15*time.Minute, "TTL should be at least base TTL")
	assert.True(t, ttl <= 20*time.Minute, "TTL should be base + max jitter")
}

func TestRedisSet_ServerDown(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	mr.Close()

	err := s.Set(context.Background(), "k", []byte("v"))
	require.ErrorContains(t, err, "redis set failed")
}
