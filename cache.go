package spiderly

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is the interface for caching API responses.
// Users may implement this interface with their preferred caching solution
// (e.g., Redis, Memcached); NewLRUCache provides an in-memory one.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies a cacheable API request.
type CacheKey struct {
	Method string
	Path   string
	Query  url.Values
}

// String returns the string representation of the cache key. Query
// parameters are encoded in sorted order.
func (k CacheKey) String() string {
	s := k.Method + ":" + k.Path
	if len(k.Query) > 0 {
		s += "?" + k.Query.Encode()
	}
	return s
}

type cacheEntry struct {
	value   []byte
	expires time.Time
}

// LRUCache is an in-memory Cache bounded by entry count.
type LRUCache struct {
	mu    sync.Mutex
	items *lru.Cache[string, cacheEntry]
	now   func() time.Time
}

// NewLRUCache returns an in-memory cache holding at most size entries.
func NewLRUCache(size int) (*LRUCache, error) {
	items, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{items: items, now: time.Now}, nil
}

// Get implements Cache.
func (c *LRUCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items.Get(key)
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.items.Remove(key)
		return nil, nil
	}
	return e.value, nil
}

// Set implements Cache.
func (c *LRUCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cacheEntry{value: value}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.items.Add(key, e)
	return nil
}

// Delete implements Cache.
func (c *LRUCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Remove(key)
	return nil
}

// DeletePrefix implements Cache.
func (c *LRUCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.items.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.items.Remove(key)
		}
	}
	return nil
}

// Clear implements Cache.
func (c *LRUCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Purge()
	return nil
}

var _ Cache = (*LRUCache)(nil)
