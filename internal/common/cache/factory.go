package cache

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Type represents the cache backend type
type Type string

const (
	TypeLocal   Type = "local"
	TypeRedis   Type = "redis"
	TypeTwoTier Type = "two_tier"
)

// Config holds cache configuration
type Config struct {
	Type        Type          `json:"type"`
	Size        int           `json:"size"`
	TTL         time.Duration `json:"ttl"`
	KeyPrefix   string        `json:"key_prefix,omitempty"`
	RedisClient *redis.Client `json:"-"`
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		Type:      TypeLocal,
		Size:      1024,
		TTL:       24 * time.Hour,
		KeyPrefix: "cache:",
	}
}

// New creates a cache instance based on configuration. TypeLocal yields a
// fixed-capacity LRU of Size entries.
func New(config Config) (Cache, error) {
	switch config.Type {
	case TypeLocal, "":
		if config.Size < 1 {
			return nil, fmt.Errorf("cache size must be positive, got %d", config.Size)
		}
		return NewLRUCache(config.Size, config.TTL), nil

	case TypeRedis:
		if config.RedisClient == nil {
			return nil, fmt.Errorf("redis client required for redis cache")
		}
		return NewRedisCache(config.RedisClient, config.KeyPrefix), nil

	case TypeTwoTier:
		if config.RedisClient == nil {
			return nil, fmt.Errorf("redis client required for two-tier cache")
		}
		if config.Size < 1 {
			return nil, fmt.Errorf("cache size must be positive, got %d", config.Size)
		}
		return NewTwoTierCache(config.Size, config.RedisClient, config.KeyPrefix), nil

	default:
		return nil, fmt.Errorf("unknown cache type: %s", config.Type)
	}
}
