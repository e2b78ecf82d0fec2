package redis

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-kb-api/internal/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	mr := miniredis.RunT(t)
	host, portStr, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client, err := NewClient(&config.RedisConfig{
		Host:         host,
		Port:         port,
		PoolSize:     4,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCache_SetGet(t *testing.T) {
	cache := NewCache(newTestClient(t))
	ctx := context.Background()

	type payload struct {
		Source string `json:"source"`
		Count  int    `json:"count"`
	}

	require.NoError(t, cache.Set(ctx, "kb:search:abc", payload{Source: "primary", Count: 3}, time.Minute))

	raw, err := cache.Get(ctx, "kb:search:abc")
	require.NoError(t, err)

	var got payload
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "primary", got.Source)
	assert.Equal(t, 3, got.Count)
}

func TestCache_MissReturnsNil(t *testing.T) {
	cache := NewCache(newTestClient(t))

	_, err := cache.Get(context.Background(), "kb:search:missing")

	require.Error(t, err)
	assert.True(t, IsNil(err))
}

func TestCache_Delete(t *testing.T) {
	cache := NewCache(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "kb:search:abc", "v", time.Minute))
	require.NoError(t, cache.Delete(ctx, "kb:search:abc"))

	_, err := cache.Get(ctx, "kb:search:abc")
	assert.True(t, IsNil(err))
}

func TestCache_InvalidateSearch(t *testing.T) {
	cache := NewCache(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, SearchCachePrefix+"a", "v1", time.Minute))
	require.NoError(t, cache.Set(ctx, SearchCachePrefix+"b", "v2", time.Minute))
	require.NoError(t, cache.Set(ctx, "kb:other:c", "v3", time.Minute))

	require.NoError(t, cache.InvalidateSearch(ctx))

	_, err := cache.Get(ctx, SearchCachePrefix+"a")
	assert.True(t, IsNil(err))
	_, err = cache.Get(ctx, SearchCachePrefix+"b")
	assert.True(t, IsNil(err))

	// 前缀之外的键不受影响
	_, err = cache.Get(ctx, "kb:other:c")
	assert.NoError(t, err)
}

func TestCache_GetOrLoadSafe(t *testing.T) {
	cache := NewCache(newTestClient(t))
	ctx := context.Background()

	loads := 0
	loader := func() (interface{}, error) {
		loads++
		return map[string]string{"k": "v"}, nil
	}

	first, err := cache.GetOrLoadSafe(ctx, "kb:search:load", time.Minute, loader)
	require.NoError(t, err)

	second, err := cache.GetOrLoadSafe(ctx, "kb:search:load", time.Minute, loader)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads)
}
