package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a size-bounded key/value store whose entries expire after a fixed TTL.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	Purge()
	Len() int
}

type lruCache[K comparable, V any] struct {
	inner *lru.LRU[K, V]
}

// NewLRU returns an expirable LRU cache holding at most size entries.
func NewLRU[K comparable, V any](size int, ttl time.Duration) Cache[K, V] {
	if size <= 0 {
		size = 128
	}
	return &lruCache[K, V]{inner: lru.NewLRU[K, V](size, nil, ttl)}
}

func (c *lruCache[K, V]) Get(key K) (V, bool) { return c.inner.Get(key) }

func (c *lruCache[K, V]) Set(key K, value V) { c.inner.Add(key, value) }

func (c *lruCache[K, V]) Delete(key K) { c.inner.Remove(key) }

func (c *lruCache[K, V]) Purge() { c.inner.Purge() }

func (c *lruCache[K, V]) Len() int { return c.inner.Len() }
