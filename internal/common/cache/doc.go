// Package cache provides a string-valued caching interface with several backends.
//
// It wraps:
//   - github.com/hashicorp/golang-lru/v2 for the fixed-capacity LRU used to memoize image URLs
//   - github.com/patrickmn/go-cache for TTL caches without a size bound, such as cached misses
//   - github.com/go-redis/redis/v8 for a cache shared between instances
//
// TwoTierCache puts a small LRU in front of Redis and promotes Redis hits into it.
//
// Usage:
//
//	images, err := cache.New(cache.Config{Type: cache.TypeLocal, Size: 1024, TTL: 24 * time.Hour})
//	images.Set(ctx, scryfallID, url, 0)
//	url, found := images.Get(ctx, scryfallID)
//
//	misses := cache.NewLocalCache(10*time.Minute, 20*time.Minute)
//	misses.Set(ctx, scryfallID, "", 0)
package cache
