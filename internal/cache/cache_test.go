package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrrpnya/pageshelf/internal/cache"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := cache.NewMemoryCache(0)
	defer mc.Stop()
	ctx := context.Background()

	conn, err := mc.Connect(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Set(ctx, "k", []byte("v")))
	got, err := conn.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := cache.NewMemoryCache(0)
	defer mc.Stop()
	ctx := context.Background()

	conn, _ := mc.Connect(ctx)
	_, err := conn.Get(ctx, "nope")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestMemoryCacheSetWithTTLExpires(t *testing.T) {
	mc := cache.NewMemoryCache(0)
	defer mc.Stop()
	ctx := context.Background()

	conn, _ := mc.Connect(ctx)
	require.NoError(t, conn.SetWithTTL(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := conn.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestMemoryCacheDeleteGlob(t *testing.T) {
	mc := cache.NewMemoryCache(0)
	defer mc.Stop()
	ctx := context.Background()

	conn, _ := mc.Connect(ctx)
	require.NoError(t, conn.Set(ctx, "page:nya:repo:pages:version", []byte("v1")))
	require.NoError(t, conn.Set(ctx, "page:nya:repo:pages:asset:/index.html", []byte("hi")))
	require.NoError(t, conn.Set(ctx, "page:other:repo:pages:version", []byte("v2")))

	n, err := conn.DeleteGlob(ctx, "page:nya:repo:pages:*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = conn.Get(ctx, "page:nya:repo:pages:version")
	assert.ErrorIs(t, err, cache.ErrMiss)
	_, err = conn.Get(ctx, "page:other:repo:pages:version")
	assert.NoError(t, err)
}

func TestRedisCacheFallsBackWhenUnreachable(t *testing.T) {
	rc := cache.NewRedisCache("127.0.0.1", 1, "", time.Minute, cache.RedisOptions{
		PoolSize: 1, MaxConnections: 1, ConnWaitTimeout: 50 * time.Millisecond,
	})
	ctx := context.Background()

	conn, err := rc.Connect(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Set(ctx, "k", []byte("v")))
	got, err := conn.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
