package ratelimit

import (
	"context"
	"fmt"
	"time"

	"card-catalog/internal/common/logging"
)

const redisCallTimeout = 2 * time.Second

// distributedLimiter implements Redis-backed sliding-window rate limiting
type distributedLimiter struct {
	config      Config
	redisClient RedisInterface
	logger      logging.Logger
}

// NewDistributedLimiter creates a new distributed rate limiter
func NewDistributedLimiter(config Config, redisClient RedisInterface) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required for distributed rate limiter")
	}

	return &distributedLimiter{
		config:      config,
		redisClient: redisClient,
		logger:      logging.Component("ratelimit"),
	}, nil
}

// Wait blocks until the global key admits a request
func (rl *distributedLimiter) Wait(ctx context.Context) error {
	return rl.WaitForKey(ctx, "global")
}

// TryAcquire attempts to acquire a slot on the global key
func (rl *distributedLimiter) TryAcquire() bool {
	return rl.TryAcquireForKey("global")
}

// TryAcquireForKey attempts to acquire a slot for a specific key. Redis
// failures admit the request.
func (rl *distributedLimiter) TryAcquireForKey(key string) bool {
	if !rl.config.Enabled {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisCallTimeout)
	defer cancel()

	allowed, _, err := rl.redisClient.CheckRateLimit(ctx, rl.config.KeyPrefix+key, rl.config.MaxRequests, rl.config.Window)
	if err != nil {
		rl.logger.Warn("Rate limit check failed, allowing request",
			logging.String("key", key),
			logging.Err(err),
		)
		return true
	}

	return allowed
}

// WaitForKey polls until a slot frees up for key or ctx is done
func (rl *distributedLimiter) WaitForKey(ctx context.Context, key string) error {
	if !rl.config.Enabled {
		return nil
	}

	waitTime := rl.config.Interval()
	if waitTime < 10*time.Millisecond {
		waitTime = 10 * time.Millisecond
	}

	for {
		if rl.TryAcquireForKey(key) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// Stats returns rate limiter statistics
func (rl *distributedLimiter) Stats() map[string]interface{} {
	return map[string]interface{}{
		"type":         "distributed",
		"enabled":      rl.config.Enabled,
		"max_requests": rl.config.MaxRequests,
		"window":       rl.config.Window.String(),
		"backend":      "redis",
		"key_prefix":   rl.config.KeyPrefix,
	}
}

// Health checks the Redis connection
func (rl *distributedLimiter) Health() error {
	return rl.redisClient.Health()
}

var _ Limiter = (*distributedLimiter)(nil)
