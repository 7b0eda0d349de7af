package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	gocache "github.com/patrickmn/go-cache"
)

// Cache defines the interface for string-valued cache operations
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// LRUCache is a fixed-capacity in-memory cache backed by golang-lru's expirable LRU.
// Every entry shares the TTL given at construction; the per-call ttl is ignored.
type LRUCache struct {
	lru *lru.LRU[string, string]
}

// NewLRUCache creates a cache holding at most size entries. A ttl <= 0 keeps
// entries until they are evicted for capacity.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size < 1 {
		size = 1
	}
	return &LRUCache{lru: lru.NewLRU[string, string](size, nil, ttl)}
}

// Get retrieves a value and marks it as recently used
func (l *LRUCache) Get(ctx context.Context, key string) (string, bool) {
	return l.lru.Get(key)
}

// Set stores a value, evicting the least recently used entry when full
func (l *LRUCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	l.lru.Add(key, value)
	return nil
}

// Delete removes a value
func (l *LRUCache) Delete(ctx context.Context, key string) error {
	l.lru.Remove(key)
	return nil
}

// Clear removes all entries
func (l *LRUCache) Clear(ctx context.Context) error {
	l.lru.Purge()
	return nil
}

// Len returns the number of cached entries
func (l *LRUCache) Len() int {
	return l.lru.Len()
}

// LocalCache wraps patrickmn/go-cache for unbounded in-memory caching with per-entry TTLs
type LocalCache struct {
	cache *gocache.Cache
}

// NewLocalCache creates a new local cache instance
func NewLocalCache(defaultTTL, cleanupInterval time.Duration) *LocalCache {
	return &LocalCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the local cache
func (l *LocalCache) Get(ctx context.Context, key string) (string, bool) {
	val, found := l.cache.Get(key)
	if !found {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

// Set stores a value in the local cache. A zero ttl uses the cache default.
func (l *LocalCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	l.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a value from the local cache
func (l *LocalCache) Delete(ctx context.Context, key string) error {
	l.cache.Delete(key)
	return nil
}

// Clear removes all items from the local cache
func (l *LocalCache) Clear(ctx context.Context) error {
	l.cache.Flush()
	return nil
}

// RedisCache wraps go-redis for distributed caching
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, keyPrefix string) *RedisCache {
	return &RedisCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get retrieves a value from Redis. Lookup errors are reported as misses.
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, r.keyPrefix+key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a value in Redis. A zero ttl stores the key without expiry.
func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, r.keyPrefix+key, value, ttl).Err()
}

// Delete removes a value from Redis
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.keyPrefix+key).Err()
}

// Clear removes all items with the key prefix from Redis
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"*", 0).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}

	return nil
}

// DefaultL1TTL bounds how long the two-tier cache keeps entries in process
const DefaultL1TTL = 5 * time.Minute

// TwoTierCache combines a bounded local LRU with Redis
type TwoTierCache struct {
	l1 *LRUCache
	l2 *RedisCache
}

// NewTwoTierCache creates a cache with an LRU L1 of l1Size entries and Redis L2
func NewTwoTierCache(l1Size int, redisClient *redis.Client, keyPrefix string) *TwoTierCache {
	return &TwoTierCache{
		l1: NewLRUCache(l1Size, DefaultL1TTL),
		l2: NewRedisCache(redisClient, keyPrefix),
	}
}

// Get checks L1 first, then L2, promoting L2 hits into L1
func (t *TwoTierCache) Get(ctx context.Context, key string) (string, bool) {
	if val, found := t.l1.Get(ctx, key); found {
		return val, true
	}

	if val, found := t.l2.Get(ctx, key); found {
		_ = t.l1.Set(ctx, key, val, DefaultL1TTL)
		return val, true
	}

	return "", false
}

// Set stores in L1, then L2. L1 is kept even when Redis fails, and the L2
// error is returned.
func (t *TwoTierCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_ = t.l1.Set(ctx, key, value, DefaultL1TTL)
	return t.l2.Set(ctx, key, value, ttl)
}

// Delete removes from both L1 and L2
func (t *TwoTierCache) Delete(ctx context.Context, key string) error {
	_ = t.l1.Delete(ctx, key)
	return t.l2.Delete(ctx, key)
}

// Clear removes all items from both caches
func (t *TwoTierCache) Clear(ctx context.Context) error {
	return errors.Join(t.l1.Clear(ctx), t.l2.Clear(ctx))
}
