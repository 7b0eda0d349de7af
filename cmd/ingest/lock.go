package main

import (
	"context"

	"card-catalog/internal/common/errors"
	"card-catalog/internal/common/logging"
	"card-catalog/internal/config"
	"card-catalog/internal/locks"
	"card-catalog/internal/redis"
)

// ingestLockKey guards the collection against concurrent load runs.
const ingestLockKey = "ingest"

// ingestLockExpiry is how long the ingest lock outlives a stalled renewal.
var ingestLockExpiry = locks.DefaultExpiry

// acquireIngestLock takes the shared ingest lock when Redis is configured. The
// returned context is cancelled if the lock is lost mid-run, and release must
// always be called. Without Redis the context is ctx and release does nothing.
func acquireIngestLock(ctx context.Context, cfg *config.Config, logger logging.Logger) (context.Context, func(), error) {
	if !cfg.RedisEnabled() {
		logger.Debug("Redis not configured, loading without the ingest lock")
		return ctx, func() {}, nil
	}

	client, err := redis.NewClient(&redis.Config{
		Address:  cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		return nil, nil, err
	}

	manager, err := locks.NewManager(client, logging.Component("locks"))
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	lock, err := manager.Acquire(ctx, ingestLockKey, ingestLockExpiry)
	if err != nil {
		client.Close()
		if errors.CodeOf(err) == locks.CodeLockHeld {
			logger.Error("Another ingestion run is in progress", err)
		} else {
			logger.Error("Could not take the ingest lock", err)
		}
		return nil, nil, err
	}
	logger.Info("Ingest lock acquired")

	lockCtx, cancel := context.WithCancel(ctx)
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		select {
		case <-lock.Lost():
			logger.Error("Ingest lock lost, stopping the run", nil)
			cancel()
		case <-lockCtx.Done():
		}
	}()

	return lockCtx, func() {
		cancel()
		<-watched
		if err := lock.Release(context.Background()); err != nil {
			logger.Warn("Failed to release ingest lock", logging.Err(err))
		}
		client.Close()
	}, nil
}
