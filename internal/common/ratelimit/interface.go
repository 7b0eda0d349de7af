package ratelimit

import (
	"context"
	"time"
)

// Limiter defines the main interface for rate limiting
type Limiter interface {
	// Global limiting
	Wait(ctx context.Context) error
	TryAcquire() bool

	// Key-based limiting for per-client restrictions
	TryAcquireForKey(key string) bool
	WaitForKey(ctx context.Context, key string) error

	Stats() map[string]interface{}
	Health() error
}

// RedisInterface defines the minimal Redis interface needed for rate limiting
type RedisInterface interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
	Health() error
}
