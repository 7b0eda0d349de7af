// Package search answers name queries against the card collection, joining
// each match with its artwork URL.
package search

import (
	"context"
	stderrors "errors"
	"strings"

	"card-catalog/internal/catalog"
	"card-catalog/internal/common/errors"
	"card-catalog/internal/common/logging"
)

// DefaultLimit caps the number of cards returned by one search.
const DefaultLimit = 20

// CodeMissingQuery is set on the validation error for a blank query.
const CodeMissingQuery = "missing_query"

// Finder looks up cards by name.
type Finder interface {
	SearchByName(ctx context.Context, query string, limit int) ([]catalog.Card, error)
}

// ImageResolver maps a Scryfall id to an image URL. It reports false when no
// image is available and never fails.
type ImageResolver interface {
	ImageURL(ctx context.Context, scryfallID string) (string, bool)
}

// Service runs card searches.
type Service struct {
	finder Finder
	images ImageResolver
	limit  int
	logger logging.Logger
}

// NewService creates a search service. A non-positive limit uses DefaultLimit.
func NewService(finder Finder, images ImageResolver, limit int, logger logging.Logger) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = logging.Component("search")
	}
	return &Service{
		finder: finder,
		images: images,
		limit:  limit,
		logger: logger,
	}
}

// Search returns the cards whose name contains rawQuery, ignoring case, each
// paired with an image URL when one can be resolved.
func (s *Service) Search(ctx context.Context, rawQuery string) ([]catalog.SearchResult, error) {
	query := strings.TrimSpace(rawQuery)
	if query == "" {
		return nil, errors.ValidationError("query is required").WithCode(CodeMissingQuery)
	}

	log := s.logger.WithContext(ctx).WithFields(logging.String("query", query))
	log.Info("Searching cards")

	cards, err := s.finder.SearchByName(ctx, query, s.limit)
	if err != nil {
		if stderrors.Is(err, catalog.ErrNotConnected) {
			return nil, errors.ConnectionError("database connection not established", err)
		}
		if errors.GetType(err) == errors.ErrTypeInternal {
			return nil, errors.InternalError("card search failed", err)
		}
		return nil, err
	}

	if len(cards) == 0 {
		log.Info("No cards matched")
		return nil, errors.NotFoundError("cards").WithContext("query", query)
	}

	results := make([]catalog.SearchResult, 0, len(cards))
	for _, card := range cards {
		result := catalog.SearchResult{Card: card}
		if card.ScryfallID == "" {
			log.Warn("Card has no Scryfall ID, skipping image",
				logging.String("card_id", card.ID),
				logging.String("name", card.Name),
			)
		} else if url, ok := s.images.ImageURL(ctx, card.ScryfallID); ok {
			result.ImageURL = &url
		}
		results = append(results, result)
	}

	log.Info("Search complete", logging.Int("results", len(results)))
	return results, nil
}
