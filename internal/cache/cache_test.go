package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Total float64  `json:"total"`
	Items []string `json:"items"`
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](2, time.Minute)

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	_, _ = c.Get(ctx, "a")
	c.Set(ctx, "c", 3)

	_, ok := c.Get(ctx, "b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", "v")
	c.Set(ctx, "other", "v")
	_, ok := c.Get(ctx, "k")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestLRUCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](4, time.Minute)
	c.Set(ctx, "k", 1)
	c.Delete(ctx, "k")
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestManagerStop(t *testing.T) {
	m := NewManager(nil)
	m.Register(NewLRUCache[int](1, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	c := NewRedisCache[report](client, "billbook:", time.Minute, nil)
	require.NoError(t, c.Ping(ctx))

	_, ok := c.Get(ctx, "report:pl:u1")
	assert.False(t, ok)

	c.Set(ctx, "report:pl:u1", report{Total: 115, Items: []string{"Pen", "Book"}})
	assert.True(t, mr.Exists("billbook:report:pl:u1"))

	got, ok := c.Get(ctx, "report:pl:u1")
	require.True(t, ok)
	assert.Equal(t, 115.0, got.Total)
	assert.Equal(t, []string{"Pen", "Book"}, got.Items)

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "report:pl:u1")
	assert.False(t, ok)

	c.Set(ctx, "k", report{Total: 1})
	c.Delete(ctx, "k")
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCacheCorruptEntryIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, mr.Set("p:k", "{not json"))
	c := NewRedisCache[report](client, "p:", time.Minute, nil)
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

var (
	_ Cache[int] = (*LRUCache[int])(nil)
	_ Cache[int] = (*RedisCache[int])(nil)
)
