package repository

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCacheFixture(t *testing.T) (*RedisSessionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisSessionCacheWithClient(client, log)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSessionCache_MarkAndCheck(t *testing.T) {
	cache, _ := newCacheFixture(t)
	ctx := context.Background()

	processed, err := cache.IsProcessed(ctx, "session_123")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, cache.MarkProcessed(ctx, "session_123"))

	processed, err = cache.IsProcessed(ctx, "session_123")
	require.NoError(t, err)
	assert.True(t, processed)

	// Другая сессия не затронута
	processed, err = cache.IsProcessed(ctx, "session_456")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestSessionCache_EntryExpires(t *testing.T) {
	cache, mr := newCacheFixture(t)
	ctx := context.Background()

	require.NoError(t, cache.MarkProcessed(ctx, "session_123"))
	mr.FastForward(processedSessionTTL + time.Second)

	processed, err := cache.IsProcessed(ctx, "session_123")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestSessionCache_UnavailableServerReturnsError(t *testing.T) {
	cache, mr := newCacheFixture(t)
	mr.Close()

	_, err := cache.IsProcessed(context.Background(), "session_123")
	assert.Error(t, err)
}
