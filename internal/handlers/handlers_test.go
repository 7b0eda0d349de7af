package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"card-catalog/internal/catalog"
	"card-catalog/internal/common/errors"
	"card-catalog/internal/common/logging"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, rawQuery string) ([]catalog.SearchResult, error) {
	args := m.Called(rawQuery)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.SearchResult), args.Error(1)
}

type MockDatabase struct {
	mock.Mock
}

func (m *MockDatabase) Connected() bool {
	return m.Called().Bool(0)
}

func (m *MockDatabase) Ping(ctx context.Context) error {
	return m.Called().Error(0)
}

func newTestHandlers(s *MockSearcher, db *MockDatabase) *Handlers {
	return New(s, db, logging.NopLogger())
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestSearchCards(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		searcher := &MockSearcher{}
		db := &MockDatabase{}
		db.On("Connected").Return(true)

		url := "https://img/bolt.jpg"
		results := []catalog.SearchResult{
			{Card: catalog.Card{ID: "65a1", Name: "Lightning Bolt", ScryfallID: "bolt"}, ImageURL: &url},
			{Card: catalog.Card{ID: "65a2", Name: "Lightning Helix"}},
		}
		searcher.On("Search", "bolt").Return(results, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/cards?query=bolt", nil)
		rr := httptest.NewRecorder()
		newTestHandlers(searcher, db).SearchCards(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var body []map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Len(t, body, 2)
		assert.Equal(t, "65a1", body[0]["_id"])
		assert.Equal(t, "Lightning Bolt", body[0]["name"])
		assert.Equal(t, url, body[0]["image_url"])
		assert.Contains(t, body[1], "image_url")
		assert.Nil(t, body[1]["image_url"])

		searcher.AssertExpectations(t)
	})

	t.Run("NotConnected", func(t *testing.T) {
		searcher := &MockSearcher{}
		db := &MockDatabase{}
		db.On("Connected").Return(false)

		// Connection is checked before the query, so an empty query still gets 500.
		req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
		rr := httptest.NewRecorder()
		newTestHandlers(searcher, db).SearchCards(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, map[string]interface{}{"error": "Database connection not established."}, decodeBody(t, rr))
		searcher.AssertNotCalled(t, "Search", mock.Anything)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{
			name:       "MissingQuery",
			err:        errors.ValidationError("query is required"),
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]interface{}{"message": "Please provide a 'query' parameter."},
		},
		{
			name:       "NoMatches",
			err:        errors.NotFoundError("cards"),
			wantStatus: http.StatusNotFound,
			wantBody:   map[string]interface{}{"message": "No cards found matching your query."},
		},
		{
			name:       "ConnectionLost",
			err:        errors.ConnectionError("database connection not established", catalog.ErrNotConnected),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]interface{}{"error": "Database connection not established."},
		},
		{
			name:       "UnexpectedFailure",
			err:        stderrors.New("cursor died"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]interface{}{"error": "An internal server error occurred during search."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &MockSearcher{}
			db := &MockDatabase{}
			db.On("Connected").Return(true)
			searcher.On("Search", "x").Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/api/cards?query=x", nil)
			rr := httptest.NewRecorder()
			newTestHandlers(searcher, db).SearchCards(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantBody, decodeBody(t, rr))
		})
	}
}

func TestHealthCheck(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		db := &MockDatabase{}
		db.On("Connected").Return(true)
		db.On("Ping").Return(nil)

		rr := httptest.NewRecorder()
		newTestHandlers(&MockSearcher{}, db).HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, map[string]interface{}{"status": "ok", "database_connection": "healthy"}, decodeBody(t, rr))
	})

	t.Run("NeverConnected", func(t *testing.T) {
		db := &MockDatabase{}
		db.On("Connected").Return(false)

		rr := httptest.NewRecorder()
		newTestHandlers(&MockSearcher{}, db).HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, map[string]interface{}{"status": "degraded", "database_connection": "not established"}, decodeBody(t, rr))
		db.AssertNotCalled(t, "Ping")
	})

	t.Run("PingFails", func(t *testing.T) {
		db := &MockDatabase{}
		db.On("Connected").Return(true)
		db.On("Ping").Return(stderrors.New("server selection timeout"))

		rr := httptest.NewRecorder()
		newTestHandlers(&MockSearcher{}, db).HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, map[string]interface{}{
			"status":              "degraded",
			"database_connection": "unhealthy: server selection timeout",
		}, decodeBody(t, rr))
	})
}

func TestSendJSON(t *testing.T) {
	h := newTestHandlers(&MockSearcher{}, &MockDatabase{})
	rr := httptest.NewRecorder()

	h.sendJSON(rr, http.StatusTeapot, map[string]string{"message": "test response"})

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"test response"}`, rr.Body.String())
}
