// Package config provides configuration management for the card catalog service.
// It loads configuration from environment variables with sensible defaults and
// validates it so the service and the ingest tool start safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: HTTP server port (default: 5000)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Log file path; empty logs to stdout
//   - FRONTEND_ORIGIN: Comma separated origins allowed by CORS (default: http://localhost)
//   - SEARCH_LIMIT: Maximum cards returned per search (default: 20)
//
// Document Store:
//   - MONGO_URI: Full connection URI; when empty it is built from the fields below
//   - MONGO_HOST: Host (default: mongodb)
//   - MONGO_PORT: Port (default: 27017)
//   - MONGO_USER, MONGO_PASSWORD: Optional credentials
//   - MONGO_AUTH_SOURCE: Authentication database (default: admin)
//   - MONGO_DATABASE: Database name (default: mtg_collection_db)
//   - MONGO_COLLECTION: Collection name (default: cards)
//   - MONGO_TIMEOUT: Server selection and per-operation timeout (default: 5s)
//   - MONGO_CONNECT_ATTEMPTS: Connection attempts at startup (default: 3)
//
// Image Lookup:
//   - SCRYFALL_API_BASE_URL: Card API base URL (default: https://api.scryfall.com)
//   - SCRYFALL_USER_AGENT: User-Agent header (default: MTGCardApp/1.0)
//   - SCRYFALL_REQUEST_DELAY: Minimum spacing between outbound calls (default: 110ms)
//   - SCRYFALL_TIMEOUT: Per-request timeout (default: 5s)
//   - IMAGE_CACHE_TYPE: local, redis or two_tier (default: local)
//   - IMAGE_CACHE_SIZE: Entries kept by the in-process cache (default: 1024)
//   - IMAGE_CACHE_TTL: Lifetime of cached image URLs, 0 keeps them for the process lifetime (default: 24h)
//   - IMAGE_MISS_TTL: Lifetime of cached not-found results, 0 disables them (default: 10m)
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address; empty disables Redis
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Rate Limiting:
//   - RATE_LIMIT_ENABLED: Enable inbound API rate limiting (default: true)
//   - RATE_LIMIT_DEFAULT: Requests allowed per window and client (default: 100)
//   - RATE_LIMIT_WINDOW: Rate limit time window (default: 60s)
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Image cache backends accepted by IMAGE_CACHE_TYPE.
const (
	CacheTypeLocal   = "local"
	CacheTypeRedis   = "redis"
	CacheTypeTwoTier = "two_tier"
)

// Config holds all configuration values for the card catalog.
//
// The configuration is loaded using Load() and should be validated using
// Validate() before use. Values that fail to parse fall back to their
// defaults and are reported by Validate.
type Config struct {
	// Application settings
	Port            string   // HTTP server port
	LogLevel        string   // Logging level (debug, info, warn, error)
	LogFile         string   // Optional log file path
	FrontendOrigins []string // Origins allowed to call /api/*
	SearchLimit     int      // Maximum cards per search response

	// Document store
	MongoURI        string
	MongoHost       string
	MongoPort       string
	MongoUser       string
	MongoPassword   string
	MongoAuthSource string
	MongoDatabase   string
	MongoCollection string
	MongoTimeout    time.Duration
	MongoAttempts   int

	// Image lookup
	ScryfallBaseURL      string
	ScryfallUserAgent    string
	ScryfallRequestDelay time.Duration
	ScryfallTimeout      time.Duration
	ImageCacheType       string
	ImageCacheSize       int
	ImageCacheTTL        time.Duration
	ImageMissTTL         time.Duration

	// Redis configuration, optional
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// Rate limiting configuration
	RateLimitEnabled bool
	RateLimitDefault int
	RateLimitWindow  time.Duration

	parseErr error
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// Load never fails. Call Validate() on the returned Config to surface malformed
// values and out-of-range settings.
func Load() *Config {
	env := &envReader{}

	cfg := &Config{
		Port:            getEnv("PORT", "5000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
		FrontendOrigins: splitList(getEnv("FRONTEND_ORIGIN", "http://localhost")),
		SearchLimit:     env.int("SEARCH_LIMIT", 20),

		MongoURI:        getEnv("MONGO_URI", ""),
		MongoHost:       getEnv("MONGO_HOST", "mongodb"),
		MongoPort:       getEnv("MONGO_PORT", "27017"),
		MongoUser:       getEnv("MONGO_USER", ""),
		MongoPassword:   getEnv("MONGO_PASSWORD", ""),
		MongoAuthSource: getEnv("MONGO_AUTH_SOURCE", "admin"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "mtg_collection_db"),
		MongoCollection: getEnv("MONGO_COLLECTION", "cards"),
		MongoTimeout:    env.duration("MONGO_TIMEOUT", 5*time.Second),
		MongoAttempts:   env.int("MONGO_CONNECT_ATTEMPTS", 3),

		ScryfallBaseURL:      strings.TrimRight(getEnv("SCRYFALL_API_BASE_URL", "https://api.scryfall.com"), "/"),
		ScryfallUserAgent:    getEnv("SCRYFALL_USER_AGENT", "MTGCardApp/1.0"),
		ScryfallRequestDelay: env.duration("SCRYFALL_REQUEST_DELAY", 110*time.Millisecond),
		ScryfallTimeout:      env.duration("SCRYFALL_TIMEOUT", 5*time.Second),
		ImageCacheType:       strings.ToLower(getEnv("IMAGE_CACHE_TYPE", CacheTypeLocal)),
		ImageCacheSize:       env.int("IMAGE_CACHE_SIZE", 1024),
		ImageCacheTTL:        env.duration("IMAGE_CACHE_TTL", 24*time.Hour),
		ImageMissTTL:         env.duration("IMAGE_MISS_TTL", 10*time.Minute),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       env.int("REDIS_DB", 0),
		RedisPoolSize: env.int("REDIS_POOL_SIZE", 10),

		RateLimitEnabled: getBoolEnv("RATE_LIMIT_ENABLED", true),
		RateLimitDefault: env.int("RATE_LIMIT_DEFAULT", 100),
		RateLimitWindow:  env.duration("RATE_LIMIT_WINDOW", 60*time.Second),
	}

	cfg.parseErr = errors.Join(env.errs...)
	return cfg
}

// MongoConnectionURI returns MONGO_URI when set, otherwise a URI assembled from
// the host, port and optional credentials.
func (c *Config) MongoConnectionURI() string {
	if c.MongoURI != "" {
		return c.MongoURI
	}

	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(c.MongoHost, c.MongoPort),
		Path:   "/",
	}
	if c.MongoUser != "" {
		u.User = url.UserPassword(c.MongoUser, c.MongoPassword)
		q := url.Values{}
		q.Set("authSource", c.MongoAuthSource)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddress != ""
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
// Anything strconv.ParseBool rejects yields the default.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// envReader parses typed values and remembers which ones were malformed.
type envReader struct {
	errs []error
}

func (r *envReader) int(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be an integer, got %q", key, value))
		return defaultValue
	}
	return parsed
}

func (r *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a valid duration (e.g., '5s', '1m'), got %q", key, value))
		return defaultValue
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate performs validation on the configuration to ensure all values are
// usable before the service starts.
//
// This method checks:
//   - Values that could not be parsed by Load
//   - Ports, durations and positive sizes
//   - The image cache backend and its Redis requirement
//   - Redis database range and pool size
//   - Rate limit settings when rate limiting is enabled
func (c *Config) Validate() error {
	if c.parseErr != nil {
		return c.parseErr
	}

	if !validPort(c.Port) {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if c.MongoURI == "" {
		if c.MongoHost == "" {
			return fmt.Errorf("MONGO_HOST is required when MONGO_URI is not set")
		}
		if !validPort(c.MongoPort) {
			return fmt.Errorf("MONGO_PORT must be a valid port number")
		}
	} else if !strings.HasPrefix(c.MongoURI, "mongodb://") && !strings.HasPrefix(c.MongoURI, "mongodb+srv://") {
		return fmt.Errorf("MONGO_URI must start with mongodb:// or mongodb+srv://")
	}
	if c.MongoDatabase == "" || c.MongoCollection == "" {
		return fmt.Errorf("MONGO_DATABASE and MONGO_COLLECTION must not be empty")
	}
	if c.MongoTimeout <= 0 {
		return fmt.Errorf("MONGO_TIMEOUT must be positive")
	}
	if c.MongoAttempts < 1 {
		return fmt.Errorf("MONGO_CONNECT_ATTEMPTS must be a positive number")
	}

	if u, err := url.Parse(c.ScryfallBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SCRYFALL_API_BASE_URL must be an absolute URL")
	}
	if c.ScryfallRequestDelay < 0 {
		return fmt.Errorf("SCRYFALL_REQUEST_DELAY must not be negative")
	}
	if c.ScryfallTimeout <= 0 {
		return fmt.Errorf("SCRYFALL_TIMEOUT must be positive")
	}

	switch c.ImageCacheType {
	case CacheTypeLocal:
	case CacheTypeRedis, CacheTypeTwoTier:
		if !c.RedisEnabled() {
			return fmt.Errorf("REDIS_ADDRESS is required when IMAGE_CACHE_TYPE is %q", c.ImageCacheType)
		}
	default:
		return fmt.Errorf("IMAGE_CACHE_TYPE must be 'local', 'redis' or 'two_tier'")
	}
	if c.ImageCacheSize < 1 {
		return fmt.Errorf("IMAGE_CACHE_SIZE must be a positive number")
	}
	if c.ImageCacheTTL < 0 || c.ImageMissTTL < 0 {
		return fmt.Errorf("IMAGE_CACHE_TTL and IMAGE_MISS_TTL must not be negative")
	}

	if c.SearchLimit < 1 {
		return fmt.Errorf("SEARCH_LIMIT must be a positive number")
	}

	if c.RedisEnabled() {
		if c.RedisDB < 0 || c.RedisDB > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if c.RedisPoolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	if c.RateLimitEnabled {
		if c.RateLimitDefault < 1 {
			return fmt.Errorf("RATE_LIMIT_DEFAULT must be a positive number")
		}
		if c.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be a positive duration")
		}
	}

	return nil
}

func validPort(value string) bool {
	port, err := strconv.Atoi(value)
	return err == nil && port >= 1 && port <= 65535
}
