package app

import (
	"context"

	"card-catalog/internal/common/logging"
	"card-catalog/internal/config"
	"card-catalog/internal/redis"
	"card-catalog/internal/scryfall"
	"card-catalog/internal/search"
	"card-catalog/internal/storage/mongo"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	Store       *mongo.Store
	RedisClient *redis.Client
	Images      *scryfall.Client
	Search      *search.Service
	Logger      logging.Logger
}

// New creates a new application instance with all dependencies. A database
// that cannot be reached is not fatal: the service starts and reports it on
// /health and on every search.
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.Component("app"),
	}

	app.initializeStorage(context.Background())

	if err := app.initializeRedis(); err != nil {
		// Redis is optional, just log the error
		app.Logger.Warn("Redis initialization failed, continuing without Redis", logging.Err(err))
	}

	if err := app.initializeImages(); err != nil {
		app.Cleanup()
		return nil, err
	}

	app.Search = search.NewService(app.Store, app.Images, cfg.SearchLimit, logging.Component("search"))
	return app, nil
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), app.Config.MongoTimeout)
		defer cancel()
		if err := app.Store.Close(ctx); err != nil {
			app.Logger.Warn("Error closing MongoDB connection", logging.Err(err))
		}
	}
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Logger.Warn("Error closing Redis connection", logging.Err(err))
		}
	}
}
