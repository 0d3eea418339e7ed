package spiderly

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	k := CacheKey{Method: "GET", Path: "/User/GetUserList"}
	assert.Equal(t, "GET:/User/GetUserList", k.String())

	k.Query = url.Values{"limit": {"10"}, "filter": {"al"}}
	assert.Equal(t, "GET:/User/GetUserList?filter=al&limit=10", k.String())
}

func TestLRUCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUCache(2)
	require.NoError(t, err)

	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.Set(ctx, "GET:/User/a", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "GET:/User/b", []byte("b"), 0))
	require.NoError(t, c.Set(ctx, "GET:/Role/c", []byte("c"), 0))

	v, _ = c.Get(ctx, "GET:/User/a")
	assert.Nil(t, v, "least recently used entry is evicted")
	v, _ = c.Get(ctx, "GET:/Role/c")
	assert.Equal(t, []byte("c"), v)

	require.NoError(t, c.DeletePrefix(ctx, "GET:/User/"))
	v, _ = c.Get(ctx, "GET:/User/b")
	assert.Nil(t, v)

	require.NoError(t, c.Delete(ctx, "GET:/Role/c"))
	v, _ = c.Get(ctx, "GET:/Role/c")
	assert.Nil(t, v)

	require.NoError(t, c.Set(ctx, "x", []byte("x"), 0))
	require.NoError(t, c.Clear(ctx))
	v, _ = c.Get(ctx, "x")
	assert.Nil(t, v)
}

func TestLRUCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUCache(8)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	v, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Minute)
	v, _ = c.Get(ctx, "k")
	assert.Nil(t, v)
}

func TestNewLRUCacheInvalidSize(t *testing.T) {
	_, err := NewLRUCache(0)
	assert.Error(t, err)
}
