package app

import (
	"fmt"

	"card-catalog/internal/circuitbreaker"
	"card-catalog/internal/common/cache"
	"card-catalog/internal/common/logging"
	"card-catalog/internal/scryfall"
)

const imageCachePrefix = "card-catalog:image:"

func (app *App) initializeImages() error {
	cfg := app.Config

	cacheType := cache.Type(cfg.ImageCacheType)
	if app.RedisClient == nil && cacheType != cache.TypeLocal {
		app.Logger.Warn("Redis unavailable, falling back to a local image cache",
			logging.String("requested", cfg.ImageCacheType),
		)
		cacheType = cache.TypeLocal
	}

	cacheConfig := cache.Config{
		Type:      cacheType,
		Size:      cfg.ImageCacheSize,
		TTL:       cfg.ImageCacheTTL,
		KeyPrefix: imageCachePrefix,
	}
	if app.RedisClient != nil {
		cacheConfig.RedisClient = app.RedisClient.Underlying()
	}

	images, err := cache.New(cacheConfig)
	if err != nil {
		return fmt.Errorf("failed to create image cache: %w", err)
	}

	logger := logging.Component("scryfall")
	var misses cache.Cache
	if cfg.ImageMissTTL > 0 {
		misses = cache.NewLocalCache(cfg.ImageMissTTL, 2*cfg.ImageMissTTL)
	}

	app.Images = scryfall.New(
		scryfall.WithBaseURL(cfg.ScryfallBaseURL),
		scryfall.WithUserAgent(cfg.ScryfallUserAgent),
		scryfall.WithRequestDelay(cfg.ScryfallRequestDelay),
		scryfall.WithTimeout(cfg.ScryfallTimeout),
		scryfall.WithImageCache(images, cfg.ImageCacheTTL),
		scryfall.WithMissCache(misses, cfg.ImageMissTTL),
		scryfall.WithBreaker(circuitbreaker.NewGoBreaker("scryfall", circuitbreaker.ImageAPIConfig, logger)),
		scryfall.WithLogger(logger),
	)

	app.Logger.Info("Image lookup configured",
		logging.String("cache", string(cacheType)),
		logging.Int("cache_size", cfg.ImageCacheSize),
		logging.Duration("request_delay", cfg.ScryfallRequestDelay),
	)
	return nil
}
