package app

import (
	"context"
	"time"

	"card-catalog/internal/common/errors"
	"card-catalog/internal/common/logging"
	"card-catalog/internal/common/utils"
	"card-catalog/internal/storage/mongo"
)

func (app *App) initializeStorage(ctx context.Context) {
	cfg := app.Config
	app.Store = mongo.New(mongo.Options{
		URI:        cfg.MongoConnectionURI(),
		Database:   cfg.MongoDatabase,
		Collection: cfg.MongoCollection,
		Timeout:    cfg.MongoTimeout,
		Logger:     logging.Component("mongo"),
	})

	retry := utils.DefaultRetryConfig()
	retry.MaxAttempts = cfg.MongoAttempts
	retry.MaxDelay = 10 * time.Second
	retry.RetryableErrors = func(err error) bool {
		return !errors.IsType(err, errors.ErrTypeConfig)
	}
	retry.OnRetry = func(attempt int, delay time.Duration, err error) {
		app.Logger.Warn("MongoDB connection attempt failed, retrying",
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Err(err),
		)
	}

	err := utils.RetryWithBackoff(ctx, retry, func() error {
		return app.Store.Connect(ctx)
	})
	if err != nil {
		app.Logger.Error("MongoDB unavailable, search will report the database as not connected", err,
			logging.String("database", cfg.MongoDatabase),
		)
		return
	}
	app.Logger.Info("MongoDB: Connected",
		logging.String("database", cfg.MongoDatabase),
		logging.String("collection", cfg.MongoCollection),
	)
}
