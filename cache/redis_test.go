package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedis creates a miniredis instance and returns a connected cache.
func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	r, err := NewRedis(RedisOptions{
		URL:            fmt.Sprintf("redis://%s", mr.Addr()),
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = r.Close()
		mr.Close()
	})

	return r, mr
}

func TestNewRedis(t *testing.T) {
	t.Run("successful connection", func(t *testing.T) {
		r, _ := setupRedis(t)
		assert.NotNil(t, r)
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedis(RedisOptions{URL: "invalid://url"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Redis URL")
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := NewRedis(RedisOptions{
			URL:            "redis://localhost:1",
			ConnectTimeout: 100 * time.Millisecond,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})
}

func TestRedisRoundTrip(t *testing.T) {
	r, _ := setupRedis(t)
	ctx := context.Background()

	_, err := r.Get(ctx, "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, r.Set(ctx, "k", []byte(`{"id":"4:abc:1"}`), time.Minute))

	val, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"4:abc:1"}`), val)

	require.NoError(t, r.Delete(ctx, "k"))
	_, err = r.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisDefaultTTL(t *testing.T) {
	r, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("v"), 0))

	// Zero TTL must fall back to the default rather than persist forever.
	ttl := mr.TTL("k")
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisExpiry(t *testing.T) {
	r, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := r.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
