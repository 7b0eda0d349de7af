package mongo

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"card-catalog/internal/catalog"
	apperrors "card-catalog/internal/common/errors"
	"card-catalog/internal/common/logging"
)

type fakeCollection struct {
	docs       []any
	lastFilter any
	lastLimit  int64
	indexes    []mongodriver.IndexModel
	findErr    error
	insertErr  error
	deadlines  []bool
}

func (f *fakeCollection) track(ctx context.Context) {
	_, ok := ctx.Deadline()
	f.deadlines = append(f.deadlines, ok)
}

func (f *fakeCollection) Find(ctx context.Context, filter any, opts ...*options.FindOptions) (cursor, error) {
	f.track(ctx)
	f.lastFilter = filter
	f.lastLimit = 0
	if f.findErr != nil {
		return nil, f.findErr
	}
	docs := f.docs
	for _, o := range opts {
		if o != nil && o.Limit != nil {
			f.lastLimit = *o.Limit
			if int(*o.Limit) < len(docs) {
				docs = docs[:*o.Limit]
			}
		}
	}
	return &fakeCursor{docs: docs, pos: -1}, nil
}

func (f *fakeCollection) InsertMany(ctx context.Context, docs []any, opts ...*options.InsertManyOptions) (*mongodriver.InsertManyResult, error) {
	f.track(ctx)
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	res := &mongodriver.InsertManyResult{}
	for _, d := range docs {
		doc := d.(cardDocument)
		doc.ID = primitive.NewObjectID()
		f.docs = append(f.docs, doc)
		res.InsertedIDs = append(res.InsertedIDs, doc.ID)
	}
	return res, nil
}

func (f *fakeCollection) CountDocuments(ctx context.Context, filter any, opts ...*options.CountOptions) (int64, error) {
	f.track(ctx)
	return int64(len(f.docs)), nil
}

func (f *fakeCollection) DeleteMany(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongodriver.DeleteResult, error) {
	f.track(ctx)
	n := int64(len(f.docs))
	f.docs = nil
	return &mongodriver.DeleteResult{DeletedCount: n}, nil
}

func (f *fakeCollection) Indexes() indexView {
	return fakeIndexView{coll: f}
}

type fakeIndexView struct {
	coll *fakeCollection
}

func (v fakeIndexView) CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...*options.CreateIndexesOptions) (string, error) {
	v.coll.indexes = append(v.coll.indexes, model)
	return nameIndex, nil
}

// fakeCursor round-trips each document through BSON like the driver does.
type fakeCursor struct {
	docs []any
	pos  int
}

func (c *fakeCursor) Next(ctx context.Context) bool {
	c.pos++
	return c.pos < len(c.docs)
}

func (c *fakeCursor) Decode(val any) error {
	raw, err := bson.Marshal(c.docs[c.pos])
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, val)
}

func (c *fakeCursor) Err() error { return nil }

func (c *fakeCursor) Close(ctx context.Context) error { return nil }

type fakeClient struct {
	pingErr      error
	disconnected bool
}

func (c *fakeClient) Ping(ctx context.Context, rp *readpref.ReadPref) error { return c.pingErr }

func (c *fakeClient) Disconnect(ctx context.Context) error {
	c.disconnected = true
	return nil
}

func connectedStore(t *testing.T, coll *fakeCollection, client *fakeClient) *Store {
	t.Helper()
	s := New(Options{Database: "mtg_collection_db", Timeout: time.Second, Logger: logging.NopLogger()})
	s.client = client
	s.coll = coll
	return s
}

func intPtr(v int) *int { return &v }

func TestStore_NotConnected(t *testing.T) {
	ctx := context.Background()
	s := New(Options{Logger: logging.NopLogger()})

	assert.False(t, s.Connected())

	_, err := s.Collection()
	assert.ErrorIs(t, err, catalog.ErrNotConnected)
	assert.ErrorIs(t, s.Ping(ctx), catalog.ErrNotConnected)

	_, err = s.SearchByName(ctx, "bolt", 20)
	assert.ErrorIs(t, err, catalog.ErrNotConnected)
	_, err = s.InsertMany(ctx, []catalog.Card{{Name: "Island"}})
	assert.ErrorIs(t, err, catalog.ErrNotConnected)
	_, err = s.Count(ctx)
	assert.ErrorIs(t, err, catalog.ErrNotConnected)
	_, err = s.Sample(ctx, 3)
	assert.ErrorIs(t, err, catalog.ErrNotConnected)
	_, err = s.DeleteAll(ctx)
	assert.ErrorIs(t, err, catalog.ErrNotConnected)

	assert.NoError(t, s.Close(ctx))
}

func TestStore_ConnectRequiresURIAndDatabase(t *testing.T) {
	s := New(Options{Logger: logging.NopLogger()})

	err := s.Connect(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.False(t, s.Connected())
}

func TestStore_ConnectInvalidURI(t *testing.T) {
	s := New(Options{URI: "not-a-mongo-uri", Database: "db", Logger: logging.NopLogger()})

	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConnection))
	assert.False(t, s.Connected())
}

func TestStore_ConnectUnreachable(t *testing.T) {
	s := New(Options{
		URI:      "mongodb://127.0.0.1:1/?connect=direct",
		Database: "db",
		Timeout:  200 * time.Millisecond,
		Logger:   logging.NopLogger(),
	})

	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConnection))

	_, err = s.Collection()
	assert.ErrorIs(t, err, catalog.ErrNotConnected)
}

func TestStore_ConnectIsIdempotent(t *testing.T) {
	coll := &fakeCollection{}
	s := connectedStore(t, coll, &fakeClient{})

	// Already connected: no new connection attempt even with an empty URI.
	assert.NoError(t, s.Connect(context.Background()))
	assert.True(t, s.Connected())
}

func TestStore_SearchByName(t *testing.T) {
	boltID := primitive.NewObjectID()
	coll := &fakeCollection{docs: []any{
		cardDocument{ID: boltID, Name: "Lightning Bolt", ScryfallID: "abc", Quantity: intPtr(4)},
		cardDocument{ID: primitive.NewObjectID(), Name: "Chain Lightning"},
	}}
	s := connectedStore(t, coll, &fakeClient{})

	cards, err := s.SearchByName(context.Background(), "light.ning", 20)
	require.NoError(t, err)
	require.Len(t, cards, 2)

	assert.Equal(t, boltID.Hex(), cards[0].ID)
	assert.Equal(t, "Lightning Bolt", cards[0].Name)
	assert.Equal(t, 4, *cards[0].Quantity)
	assert.Equal(t, int64(20), coll.lastLimit)
	assert.Equal(t, []bool{true}, coll.deadlines)

	filter, ok := coll.lastFilter.(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"$regex": `light\.ning`, "$options": "i"}, filter["name"])
}

func TestStore_SearchByNameLooselyTypedDocuments(t *testing.T) {
	id := primitive.NewObjectID()
	coll := &fakeCollection{docs: []any{
		bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Llanowar Elves"},
			{Key: "binder_type", Value: math.NaN()},
			{Key: "collector_number", Value: int64(141)},
			{Key: "quantity", Value: 2.0},
			{Key: "manabox_id", Value: int32(99)},
			{Key: "purchase_price", Value: math.NaN()},
			{Key: "misprint", Value: false},
			{Key: "altered", Value: math.NaN()},
			{Key: "language", Value: nil},
			{Key: "foil", Value: bson.A{"odd"}},
		},
	}}
	s := connectedStore(t, coll, &fakeClient{})

	cards, err := s.SearchByName(context.Background(), "elves", 20)
	require.NoError(t, err)
	require.Len(t, cards, 1)

	card := cards[0]
	assert.Equal(t, id.Hex(), card.ID)
	assert.Equal(t, "Llanowar Elves", card.Name)
	assert.Equal(t, "141", card.CollectorNumber)
	assert.Empty(t, card.BinderType)
	assert.Empty(t, card.Language)
	assert.Empty(t, card.Foil)
	require.NotNil(t, card.Quantity)
	assert.Equal(t, 2, *card.Quantity)
	require.NotNil(t, card.ManaboxID)
	assert.Equal(t, int64(99), *card.ManaboxID)
	assert.Nil(t, card.PurchasePrice)
	assert.Nil(t, card.Altered)
	require.NotNil(t, card.Misprint)
	assert.False(t, *card.Misprint)
}

func TestCardFromRaw_Conversions(t *testing.T) {
	tests := []struct {
		name    string
		doc     bson.D
		want    catalog.Card
		dropped []string
	}{
		{
			name: "whole double collector number",
			doc:  bson.D{{Key: "name", Value: "Opt"}, {Key: "collector_number", Value: 59.0}},
			want: catalog.Card{Name: "Opt", CollectorNumber: "59"},
		},
		{
			name: "string id and numeric text",
			doc: bson.D{
				{Key: "_id", Value: "legacy-1"},
				{Key: "name", Value: "Opt"},
				{Key: "manabox_id", Value: " 12 "},
				{Key: "purchase_price", Value: "0.25"},
				{Key: "altered", Value: "true"},
			},
			want: catalog.Card{
				ID:            "legacy-1",
				Name:          "Opt",
				ManaboxID:     func() *int64 { n := int64(12); return &n }(),
				PurchasePrice: func() *float64 { f := 0.25; return &f }(),
				Altered:       func() *bool { b := true; return &b }(),
			},
		},
		{
			name:    "fractional quantity is dropped",
			doc:     bson.D{{Key: "name", Value: "Opt"}, {Key: "quantity", Value: 1.5}},
			want:    catalog.Card{Name: "Opt"},
			dropped: []string{"quantity"},
		},
		{
			name:    "unknown fields are ignored",
			doc:     bson.D{{Key: "name", Value: "Opt"}, {Key: "notes", Value: bson.A{1, 2}}},
			want:    catalog.Card{Name: "Opt"},
			dropped: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(tt.doc)
			require.NoError(t, err)

			card, dropped := cardFromRaw(raw)
			assert.Equal(t, tt.want, card)
			assert.Equal(t, tt.dropped, dropped)
		})
	}
}

func TestStore_SearchByNameSkipsUndecodable(t *testing.T) {
	coll := &fakeCollection{docs: []any{
		cardDocument{Name: "Island"},
		"not a document",
		cardDocument{Name: "Snow-Covered Island"},
	}}
	s := connectedStore(t, coll, &fakeClient{})

	cards, err := s.SearchByName(context.Background(), "island", 20)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Island", cards[0].Name)
	assert.Equal(t, "Snow-Covered Island", cards[1].Name)
}

func TestStore_SearchByNameError(t *testing.T) {
	coll := &fakeCollection{findErr: errors.New("cursor failed")}
	s := connectedStore(t, coll, &fakeClient{})

	_, err := s.SearchByName(context.Background(), "bolt", 20)
	assert.EqualError(t, err, "cursor failed")
}

func TestStore_InsertCountSampleDelete(t *testing.T) {
	ctx := context.Background()
	coll := &fakeCollection{}
	s := connectedStore(t, coll, &fakeClient{})

	ids, err := s.InsertMany(ctx, []catalog.Card{{Name: "Island"}, {Name: "Forest", SetCode: "dmu"}})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	for _, id := range ids {
		_, err := primitive.ObjectIDFromHex(id)
		assert.NoError(t, err)
	}

	ids, err = s.InsertMany(ctx, nil)
	assert.NoError(t, err)
	assert.Empty(t, ids)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	sample, err := s.Sample(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sample, 1)
	assert.Equal(t, "Island", sample[0].Name)

	deleted, err := s.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_PingAndClose(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	s := connectedStore(t, &fakeCollection{}, client)

	assert.NoError(t, s.Ping(ctx))

	client.pingErr = errors.New("server selection timeout")
	assert.EqualError(t, s.Ping(ctx), "server selection timeout")

	require.NoError(t, s.Close(ctx))
	assert.True(t, client.disconnected)
	assert.False(t, s.Connected())
	assert.ErrorIs(t, s.Ping(ctx), catalog.ErrNotConnected)
}

func TestEnsureIndexes(t *testing.T) {
	coll := &fakeCollection{}
	require.NoError(t, ensureIndexes(context.Background(), coll))

	require.Len(t, coll.indexes, 1)
	assert.Equal(t, bson.D{{Key: "name", Value: 1}}, coll.indexes[0].Keys)
}

func TestCardDocumentRoundTrip(t *testing.T) {
	price := 1.25
	card := catalog.Card{
		ID:            primitive.NewObjectID().Hex(),
		Name:          "Lightning Bolt",
		Quantity:      intPtr(0),
		PurchasePrice: &price,
	}

	doc := fromCard(card)
	assert.Equal(t, card.ID, doc.ID.Hex())

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	decoded, dropped := cardFromRaw(raw)
	assert.Empty(t, dropped)
	assert.Equal(t, card, decoded)

	raw, err = bson.Marshal(fromCard(catalog.Card{Name: "Island"}))
	require.NoError(t, err)
	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, bson.M{"name": "Island"}, m, "empty fields are not stored")
}
