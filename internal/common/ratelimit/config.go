package ratelimit

import (
	"fmt"
	"time"
)

// Config represents rate limiter configuration.
//
// A limiter admits MaxRequests per Window. The local backend spreads them as a
// token bucket refilling every Window/MaxRequests with BurstSize tokens; the
// distributed backend counts them in a Redis sliding window.
type Config struct {
	Enabled     bool          `json:"enabled"`
	MaxRequests int           `json:"max_requests"`
	Window      time.Duration `json:"window"`
	BurstSize   int           `json:"burst_size,omitempty"`

	// Backend type
	Type BackendType `json:"type"`

	// Distributed backend settings
	KeyPrefix string `json:"key_prefix,omitempty"`

	// Cleanup settings for local per-key limiters
	MaxKeys       int           `json:"max_keys,omitempty"`
	CleanupPeriod time.Duration `json:"cleanup_period,omitempty"`
}

// BackendType defines the rate limiter backend
type BackendType string

const (
	BackendLocal       BackendType = "local"
	BackendDistributed BackendType = "distributed"
	BackendRedis       BackendType = "redis" // Alias for distributed
)

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.MaxRequests <= 0 {
		return fmt.Errorf("max requests must be positive, got %d", c.MaxRequests)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", c.Window)
	}
	if c.BurstSize <= 0 {
		c.BurstSize = c.MaxRequests
	}

	if c.Type == "" {
		c.Type = BackendLocal
	}

	switch c.Type {
	case BackendLocal:
		if c.MaxKeys <= 0 {
			c.MaxKeys = 10000
		}
		if c.CleanupPeriod <= 0 {
			c.CleanupPeriod = 5 * time.Minute
		}
	case BackendDistributed, BackendRedis:
		if c.KeyPrefix == "" {
			c.KeyPrefix = "ratelimit:"
		}
	default:
		return fmt.Errorf("unsupported rate limiter backend type: %s", c.Type)
	}

	return nil
}

// Interval returns the spacing between admitted requests
func (c Config) Interval() time.Duration {
	if c.MaxRequests <= 0 {
		return 0
	}
	return c.Window / time.Duration(c.MaxRequests)
}

// DefaultConfig returns the inbound API default of 100 requests per minute
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		MaxRequests:   100,
		Window:        time.Minute,
		BurstSize:     100,
		Type:          BackendLocal,
		KeyPrefix:     "ratelimit:",
		MaxKeys:       10000,
		CleanupPeriod: 5 * time.Minute,
	}
}

// IntervalConfig returns a config admitting one request per interval with no burst.
// A non-positive interval disables limiting.
func IntervalConfig(interval time.Duration) Config {
	return Config{
		Enabled:     interval > 0,
		MaxRequests: 1,
		Window:      interval,
		BurstSize:   1,
		Type:        BackendLocal,
	}
}
