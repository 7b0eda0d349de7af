package ingest

import (
	"context"

	"card-catalog/internal/catalog"
	"card-catalog/internal/common/logging"
)

// DefaultSamples is how many documents Verify shows.
const DefaultSamples = 3

// Inspector reads back what was stored.
type Inspector interface {
	Count(ctx context.Context) (int64, error)
	Sample(ctx context.Context, n int) ([]catalog.Card, error)
}

// Verification is what Verify found in the store.
type Verification struct {
	Total   int64
	Samples []catalog.Card
}

// Verify logs the total number of stored cards and up to n sample documents.
func Verify(ctx context.Context, repo Inspector, n int, logger logging.Logger) (*Verification, error) {
	if logger == nil {
		logger = logging.Component("ingest")
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("Verified stored cards", logging.Int64("total", total))

	v := &Verification{Total: total}
	if total == 0 {
		logger.Warn("No cards found in the collection, ingestion might have failed")
		return v, nil
	}
	if n <= 0 {
		return v, nil
	}

	v.Samples, err = repo.Sample(ctx, n)
	if err != nil {
		return v, err
	}
	for i, card := range v.Samples {
		logger.Info("Sample card",
			logging.Int("sample", i+1),
			logging.String("id", card.ID),
			logging.String("name", card.Name),
			logging.String("set_code", card.SetCode),
			logging.Any("card", card),
		)
	}
	return v, nil
}

// Deleter empties the store.
type Deleter interface {
	DeleteAll(ctx context.Context) (int64, error)
}

// Clear removes every stored card before a fresh load.
func Clear(ctx context.Context, repo Deleter, logger logging.Logger) (int64, error) {
	if logger == nil {
		logger = logging.Component("ingest")
	}
	n, err := repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	logger.Info("Cleared collection", logging.Int64("deleted", n))
	return n, nil
}
