// Package ingest loads a ManaBox collection export into the card store.
//
// Rows are parsed and validated on one goroutine and inserted in batches on
// the caller's, so large exports stream instead of being held in memory.
package ingest

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"card-catalog/internal/catalog"
	"card-catalog/internal/common/errors"
	"card-catalog/internal/common/logging"
	"card-catalog/internal/common/validation"
)

const (
	DefaultBatchSize = 500
	DefaultCSVPath   = "ManaBox_Collection.csv"

	// reportedIDs is how many inserted ids a Report keeps.
	reportedIDs = 3
)

// Inserter stores a batch of cards and returns their ids.
type Inserter interface {
	InsertMany(ctx context.Context, cards []catalog.Card) ([]string, error)
}

// Report summarizes one ingestion run.
type Report struct {
	RowsRead int      `json:"rows_read"`
	Skipped  int      `json:"skipped"`
	Invalid  int      `json:"invalid"`
	Prepared int      `json:"prepared"`
	Inserted int      `json:"inserted"`
	Batches  int      `json:"batches"`
	FirstIDs []string `json:"first_ids,omitempty"`
}

// Loader reads CSV exports and inserts them through an Inserter.
type Loader struct {
	repo      Inserter
	batchSize int
	validator *validation.Validator
	logger    logging.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithBatchSize sets how many cards go into one insert. Non-positive values are ignored.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a Loader writing to repo.
func NewLoader(repo Inserter, opts ...Option) *Loader {
	l := &Loader{
		repo:      repo,
		batchSize: DefaultBatchSize,
		validator: validation.New(),
		logger:    logging.Component("ingest"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile ingests the CSV file at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.NotFoundError("csv file").WithContext("path", path)
		}
		return nil, errors.InternalError("failed to open csv file", err).WithContext("path", path)
	}
	defer f.Close()

	l.logger.Info("Starting CSV ingestion", logging.String("path", path))
	return l.Load(ctx, f)
}

// Load ingests CSV data from r. The first record must be the header. On a
// parse or insert failure the partial report is returned with the error.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*Report, error) {
	cr := csv.NewReader(r)

	cols, err := cr.Read()
	if err == io.EOF {
		return nil, errors.ValidationError("csv file is empty").WithCode("empty_csv")
	}
	if err != nil {
		return nil, parseError(err)
	}
	h := newHeader(cols)
	if _, ok := h[ColName]; !ok {
		return nil, errors.ValidationError(fmt.Sprintf("csv header has no %q column", ColName)).WithCode("missing_column")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	report := &Report{}
	batches := make(chan []catalog.Card, 1)
	produced := make(chan error, 1)

	go func() {
		defer close(batches)
		produced <- l.produce(ctx, cr, h, report, batches)
	}()

	var insertErr error
	for batch := range batches {
		if insertErr != nil {
			continue
		}
		if insertErr = l.insert(ctx, batch, report); insertErr != nil {
			cancel()
		}
	}
	parseErr := <-produced

	switch {
	case insertErr != nil:
		return report, insertErr
	case parseErr != nil:
		return report, parseErr
	}

	if report.RowsRead == 0 {
		l.logger.Warn("CSV file has a header but no data rows")
		return report, nil
	}
	if report.Prepared == 0 {
		l.logger.Warn("No documents were prepared for insertion, check the CSV columns")
	}

	l.logger.Info("CSV ingestion complete",
		logging.Int("rows_read", report.RowsRead),
		logging.Int("skipped", report.Skipped),
		logging.Int("invalid", report.Invalid),
		logging.Int("prepared", report.Prepared),
		logging.Int("inserted", report.Inserted),
		logging.Any("first_ids", report.FirstIDs),
	)
	return report, nil
}

// produce reads records, maps and validates them, and sends full batches.
// It owns the RowsRead, Skipped, Invalid and Prepared counters.
func (l *Loader) produce(ctx context.Context, cr *csv.Reader, h header, report *Report, out chan<- []catalog.Card) error {
	send := func(batch []catalog.Card) error {
		select {
		case out <- batch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	batch := make([]catalog.Card, 0, l.batchSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return parseError(err)
		}
		line, _ := cr.FieldPos(0)
		report.RowsRead++

		card, ok := row{h: h, fields: fields, line: line, log: l.logger}.card()
		if !ok {
			l.logger.Warn("Skipping row with missing or unknown name", logging.Int("line", line))
			report.Skipped++
			continue
		}
		if err := l.validator.ValidateStruct(card); err != nil {
			l.logger.Warn("Skipping invalid row",
				logging.Int("line", line),
				logging.String("name", card.Name),
				logging.Err(err),
			)
			report.Invalid++
			continue
		}

		batch = append(batch, card)
		report.Prepared++
		if len(batch) >= l.batchSize {
			if err := send(batch); err != nil {
				return err
			}
			batch = make([]catalog.Card, 0, l.batchSize)
		}
	}

	if len(batch) > 0 {
		return send(batch)
	}
	return nil
}

// insert stores one batch. It owns the Inserted, Batches and FirstIDs fields.
func (l *Loader) insert(ctx context.Context, batch []catalog.Card, report *Report) error {
	ids, err := l.repo.InsertMany(ctx, batch)
	if err != nil {
		if stderrors.Is(err, catalog.ErrNotConnected) {
			return errors.ConnectionError("database connection not established", err)
		}
		return errors.InternalError("failed to insert batch", err).
			WithContext("batch", report.Batches+1).
			WithContext("size", len(batch))
	}

	report.Batches++
	report.Inserted += len(ids)
	for _, id := range ids {
		if len(report.FirstIDs) >= reportedIDs {
			break
		}
		report.FirstIDs = append(report.FirstIDs, id)
	}

	l.logger.Info("Inserted batch",
		logging.Int("batch", report.Batches),
		logging.Int("size", len(ids)),
	)
	return nil
}

func parseError(err error) error {
	var pe *csv.ParseError
	if stderrors.As(err, &pe) {
		appErr := errors.ValidationError(fmt.Sprintf("malformed csv at line %d: %v", pe.Line, pe.Err)).WithCode("malformed_csv")
		appErr.Cause = err
		return appErr
	}
	return errors.InternalError("failed to read csv", err)
}
