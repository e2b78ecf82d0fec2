package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter(newTestClient(t))
	ctx := context.Background()
	key := BuildRateLimitKey("10.0.0.1", "/api/v1/kb/search")

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, key, 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}

	ok, err := limiter.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(newTestClient(t))
	ctx := context.Background()

	a := BuildRateLimitKey("10.0.0.1", "/api/v1/kb/search")
	b := BuildRateLimitKey("10.0.0.2", "/api/v1/kb/search")

	ok, err := limiter.Allow(ctx, a, 1, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = limiter.Allow(ctx, a, 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// 另一客户端不受影响
	ok, err = limiter.Allow(ctx, b, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_Remaining(t *testing.T) {
	limiter := NewRateLimiter(newTestClient(t))
	ctx := context.Background()
	key := BuildRateLimitKey("10.0.0.1", "/api/v1/kb/sync")

	remaining, err := limiter.Remaining(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	_, err = limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)

	remaining, err = limiter.Remaining(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestRateLimiter_Reset(t *testing.T) {
	limiter := NewRateLimiter(newTestClient(t))
	ctx := context.Background()
	key := BuildRateLimitKey("10.0.0.1", "/api/v1/kb/search")

	ok, err := limiter.Allow(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, limiter.Reset(ctx, key))

	ok, err = limiter.Allow(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
