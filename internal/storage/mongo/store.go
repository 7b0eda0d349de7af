// Package mongo is the MongoDB persistence adapter for the card collection.
package mongo

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"card-catalog/internal/catalog"
	apperrors "card-catalog/internal/common/errors"
	"card-catalog/internal/common/logging"
)

const (
	defaultOpTimeout  = 5 * time.Second
	defaultCollection = "cards"
	nameIndex         = "name_1"
)

// Options configures the Mongo store.
type Options struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
	Logger     logging.Logger
}

// mongoClient is the part of *mongo.Client the store needs after connecting.
type mongoClient interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Disconnect(ctx context.Context) error
}

// Store holds one connection handle to the card collection. It is safe for
// concurrent use; until Connect succeeds every operation fails with
// catalog.ErrNotConnected.
type Store struct {
	opts   Options
	logger logging.Logger

	mu     sync.RWMutex
	client mongoClient
	raw    *mongodriver.Collection
	coll   collection
}

// New returns an unconnected store. It performs no I/O.
func New(opts Options) *Store {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultOpTimeout
	}
	if opts.Collection == "" {
		opts.Collection = defaultCollection
	}
	if opts.Logger == nil {
		opts.Logger = logging.Component("mongo")
	}
	return &Store{opts: opts, logger: opts.Logger}
}

// Connect opens the connection and verifies it against the primary. Calling it
// on a connected store is a no-op. On failure the store stays unconnected.
func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coll != nil {
		s.logger.Info("MongoDB connection already established")
		return nil
	}
	if s.opts.URI == "" || s.opts.Database == "" {
		return apperrors.ConfigError("mongo uri and database are required")
	}

	clientOpts := options.Client().
		ApplyURI(s.opts.URI).
		SetServerSelectionTimeout(s.opts.Timeout).
		SetConnectTimeout(s.opts.Timeout)

	client, err := mongodriver.Connect(ctx, clientOpts)
	if err != nil {
		return apperrors.ConnectionError("failed to connect to MongoDB", err)
	}

	pingCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return apperrors.ConnectionError("failed to ping MongoDB", err)
	}

	raw := client.Database(s.opts.Database).Collection(s.opts.Collection)
	coll := mongoCollection{coll: raw}

	indexCtx, cancelIndex := s.withTimeout(ctx)
	defer cancelIndex()
	if err := ensureIndexes(indexCtx, coll); err != nil {
		s.logger.Warn("Failed to create name index", logging.Err(err))
	}

	s.client = client
	s.raw = raw
	s.coll = coll

	s.logger.Info("Connected to MongoDB",
		logging.String("database", s.opts.Database),
		logging.String("collection", s.opts.Collection),
	)
	return nil
}

// Collection returns the active collection handle.
func (s *Store) Collection() (*mongodriver.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.coll == nil {
		return nil, catalog.ErrNotConnected
	}
	return s.raw, nil
}

// Connected reports whether Connect has succeeded.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coll != nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()
	if client == nil {
		return catalog.ErrNotConnected
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return client.Ping(ctx, readpref.Primary())
}

// Close disconnects. Closing an unconnected store does nothing.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	err := s.client.Disconnect(ctx)
	s.client, s.raw, s.coll = nil, nil, nil
	return err
}

// SearchByName returns up to limit cards whose name contains query, ignoring case.
// The query is matched literally.
func (s *Store) SearchByName(ctx context.Context, query string, limit int) ([]catalog.Card, error) {
	coll, err := s.collection()
	if err != nil {
		return nil, err
	}

	filter := bson.M{"name": bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}}
	findOpts := options.Find()
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	return s.find(ctx, coll, filter, findOpts)
}

// InsertMany stores cards and returns their generated ids as hex strings.
func (s *Store) InsertMany(ctx context.Context, cards []catalog.Card) ([]string, error) {
	coll, err := s.collection()
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, nil
	}

	docs := make([]any, len(cards))
	for i, card := range cards {
		docs[i] = fromCard(card)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := coll.InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(res.InsertedIDs))
	for _, id := range res.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok {
			ids = append(ids, oid.Hex())
		}
	}
	return ids, nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context) (int64, error) {
	coll, err := s.collection()
	if err != nil {
		return 0, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return coll.CountDocuments(ctx, bson.D{})
}

// Sample returns the first n documents in natural order.
func (s *Store) Sample(ctx context.Context, n int) ([]catalog.Card, error) {
	coll, err := s.collection()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	return s.find(ctx, coll, bson.D{}, options.Find().SetLimit(int64(n)))
}

// DeleteAll empties the collection and returns how many documents were removed.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	coll, err := s.collection()
	if err != nil {
		return 0, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) find(ctx context.Context, coll collection, filter any, opts *options.FindOptions) ([]catalog.Card, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []catalog.Card
	for cur.Next(ctx) {
		var raw bson.Raw
		if err := cur.Decode(&raw); err != nil {
			s.logger.Warn("Skipping undecodable card document", logging.Err(err))
			continue
		}
		card, dropped := cardFromRaw(raw)
		if len(dropped) > 0 {
			s.logger.Warn("Ignored card fields with unusable values",
				logging.String("id", card.ID),
				logging.String("fields", strings.Join(dropped, ",")),
			)
		}
		out = append(out, card)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) collection() (collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.coll == nil {
		return nil, catalog.ErrNotConnected
	}
	return s.coll, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}

func ensureIndexes(ctx context.Context, coll collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName(nameIndex),
	})
	return err
}

var _ catalog.Repository = (*Store)(nil)
