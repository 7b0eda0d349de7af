package ratelimit

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// New creates a new rate limiter based on the configuration
func New(config Config, redisClient ...RedisInterface) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case BackendLocal, "":
		return NewLocalLimiter(config)
	case BackendDistributed, BackendRedis:
		if len(redisClient) == 0 || redisClient[0] == nil {
			return nil, fmt.Errorf("redis client is required for distributed rate limiter")
		}
		return NewDistributedLimiter(config, redisClient[0])
	default:
		return nil, fmt.Errorf("unsupported rate limiter backend type: %s", config.Type)
	}
}

// HTTPMiddleware creates an HTTP middleware for rate limiting. An empty key
// from keyFunc falls back to the global limit.
func HTTPMiddleware(limiter Limiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)

			var allowed bool
			if key == "" {
				allowed = limiter.TryAcquire()
			} else {
				allowed = limiter.TryAcquireForKey(key)
			}

			if !allowed {
				stats := limiter.Stats()
				if maxRequests, ok := stats["max_requests"].(int); ok {
					w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
					w.Header().Set("X-RateLimit-Remaining", "0")
				}
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPKey extracts the client IP from the request for rate limiting. The first
// X-Forwarded-For entry wins, then X-Real-IP, then the remote address.
func IPKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
