package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](2, time.Minute)

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	v, ok := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// "b" is now least recently used and gets evicted.
	c.Set(ctx, "c", 3)
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Size())

	c.Delete(ctx, "a")
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestLRUCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", "v")
	c.Set(ctx, "k2", "v2")
	now = now.Add(2 * time.Minute)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok, "expired entries are misses")
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())
}

func TestLRUCachePurge(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](10, time.Minute)
	for i, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, i)
	}
	c.Purge(ctx)
	assert.Zero(t, c.Size())

	c.Set(ctx, "d", 4)
	v, ok := c.Get(ctx, "d")
	assert.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set(ctx, "a", 1)
	now = now.Add(time.Hour)

	m := NewManager()
	m.Register(c)
	m.Register(struct{}{}) // not a Cleaner, ignored
	assert.Equal(t, 1, m.CleanNow())

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
