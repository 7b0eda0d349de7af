package main

import (
	"context"
	"io"
	"os"

	"github.com/joho/godotenv"

	"card-catalog/internal/common/logging"
	"card-catalog/internal/config"
	"card-catalog/internal/storage/mongo"
)

// hostMongo is where MongoDB is published when running outside the compose network.
const hostMongo = "localhost"

// loadConfig reads the shared service configuration and applies the
// host-run defaults and command-line overrides.
func loadConfig() *config.Config {
	_ = godotenv.Load()

	cfg := config.Load()
	if os.Getenv("MONGO_HOST") == "" {
		cfg.MongoHost = hostMongo
	}
	if mongoURI != "" {
		cfg.MongoURI = mongoURI
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg
}

// session is an open store plus the resources to release with it.
type session struct {
	cfg    *config.Config
	store  *mongo.Store
	logger logging.Logger
	closer io.Closer
}

func openSession(ctx context.Context) (*session, error) {
	cfg := loadConfig()

	closer, err := logging.InitGlobalLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	logger := logging.Component("ingest")

	store := mongo.New(mongo.Options{
		URI:        cfg.MongoConnectionURI(),
		Database:   cfg.MongoDatabase,
		Collection: cfg.MongoCollection,
		Timeout:    cfg.MongoTimeout,
		Logger:     logging.Component("mongo"),
	})
	if err := store.Connect(ctx); err != nil {
		logger.Error("Cannot reach MongoDB, is it running and is the port published on this host?", err,
			logging.String("database", cfg.MongoDatabase),
		)
		closer.Close()
		return nil, err
	}

	return &session{cfg: cfg, store: store, logger: logger, closer: closer}, nil
}

func (s *session) Close(ctx context.Context) {
	if err := s.store.Close(ctx); err != nil {
		s.logger.Warn("Error closing MongoDB connection", logging.Err(err))
	} else {
		s.logger.Info("MongoDB connection closed")
	}
	logging.MustSync()
	s.closer.Close()
}
