package app

import (
	"card-catalog/internal/common/logging"
	"card-catalog/internal/common/ratelimit"
)

// InitializeRateLimiter creates the inbound limiter for /api. It is shared
// through Redis when Redis is configured and in-process otherwise. A nil
// limiter means rate limiting is disabled.
func (app *App) InitializeRateLimiter() ratelimit.Limiter {
	if !app.Config.RateLimitEnabled {
		app.Logger.Info("Rate Limiting: Disabled")
		return nil
	}

	rateLimitConfig := ratelimit.Config{
		Enabled:     true,
		MaxRequests: app.Config.RateLimitDefault,
		Window:      app.Config.RateLimitWindow,
		BurstSize:   app.Config.RateLimitDefault,
		Type:        ratelimit.BackendLocal,
		KeyPrefix:   "card-catalog:ratelimit:",
	}

	var limiter ratelimit.Limiter
	var err error
	if app.RedisClient != nil {
		rateLimitConfig.Type = ratelimit.BackendDistributed
		limiter, err = ratelimit.New(rateLimitConfig, app.RedisClient)
	} else {
		limiter, err = ratelimit.New(rateLimitConfig)
	}
	if err != nil {
		app.Logger.Warn("Rate limiter unavailable, serving without inbound limits", logging.Err(err))
		return nil
	}

	app.Logger.Info("Rate Limiting: Enabled",
		logging.String("backend", string(rateLimitConfig.Type)),
		logging.Int("limit", app.Config.RateLimitDefault),
		logging.Duration("window", app.Config.RateLimitWindow),
	)
	return limiter
}
