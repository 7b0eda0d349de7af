package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// localLimiter implements rate limiting using golang.org/x/time/rate
type localLimiter struct {
	mu       sync.Mutex
	config   Config
	limit    rate.Limit
	limiters map[string]*limiterEntry

	// Global limiter for non-keyed operations
	globalLimiter *rate.Limiter

	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewLocalLimiter creates a new in-memory rate limiter
func NewLocalLimiter(config Config) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if config.Enabled {
		limit = rate.Every(config.Interval())
	}

	return &localLimiter{
		config:        config,
		limit:         limit,
		limiters:      make(map[string]*limiterEntry),
		globalLimiter: rate.NewLimiter(limit, config.BurstSize),
		lastCleanup:   time.Now(),
	}, nil
}

// Wait blocks until a request can be made according to the rate limit
func (rl *localLimiter) Wait(ctx context.Context) error {
	if !rl.config.Enabled {
		return nil
	}
	return rl.globalLimiter.Wait(ctx)
}

// TryAcquire attempts to acquire a token without blocking
func (rl *localLimiter) TryAcquire() bool {
	if !rl.config.Enabled {
		return true
	}
	return rl.globalLimiter.Allow()
}

// TryAcquireForKey attempts to acquire a token for a specific key
func (rl *localLimiter) TryAcquireForKey(key string) bool {
	if !rl.config.Enabled {
		return true
	}
	return rl.getLimiterForKey(key).Allow()
}

// WaitForKey blocks until a request can be made for a specific key
func (rl *localLimiter) WaitForKey(ctx context.Context, key string) error {
	if !rl.config.Enabled {
		return nil
	}
	return rl.getLimiterForKey(key).Wait(ctx)
}

// getLimiterForKey gets or creates a rate limiter for a specific key
func (rl *localLimiter) getLimiterForKey(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) > rl.config.CleanupPeriod {
		rl.cleanup()
	}

	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{
			limiter:  rate.NewLimiter(rl.limit, rl.config.BurstSize),
			lastUsed: time.Now(),
		}
		rl.limiters[key] = entry

		if len(rl.limiters) > rl.config.MaxKeys {
			rl.cleanup()
		}
	} else {
		entry.lastUsed = time.Now()
	}

	return entry.limiter
}

// cleanup removes limiters that haven't been used within the cleanup period
func (rl *localLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.config.CleanupPeriod)

	for key, entry := range rl.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}

	rl.lastCleanup = time.Now()
}

// Stats returns rate limiter statistics
func (rl *localLimiter) Stats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"type":             "local",
		"enabled":          rl.config.Enabled,
		"max_requests":     rl.config.MaxRequests,
		"window":           rl.config.Window.String(),
		"burst_size":       rl.config.BurstSize,
		"available_tokens": rl.globalLimiter.Tokens(),
		"active_keys":      len(rl.limiters),
		"max_keys":         rl.config.MaxKeys,
	}
}

// Health always succeeds for the in-memory limiter
func (rl *localLimiter) Health() error {
	return nil
}

var _ Limiter = (*localLimiter)(nil)
