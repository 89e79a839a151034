package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/retail/transaction"
)

// SQLite is a Store backed by a single SQLite database file.
type SQLite struct {
	db        *sql.DB
	log       zerolog.Logger
	mustExist bool
}

var _ Store = (*SQLite)(nil)

// Option configures a SQLite store.
type Option func(*SQLite)

// WithLogger sets the logger used by the store. The default discards.
func WithLogger(log zerolog.Logger) Option {
	return func(s *SQLite) {
		s.log = log.With().Str("component", "store").Logger()
	}
}

// MustExist makes NewSQLite fail with ErrNoDatabase instead of creating a
// new database file.
func MustExist() Option {
	return func(s *SQLite) { s.mustExist = true }
}

// NewSQLite opens (or creates) the database at path and applies Schema.
func NewSQLite(path string, opts ...Option) (*SQLite, error) {
	s := &SQLite{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	if s.mustExist {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoDatabase)
		} else if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases coherent and matches the
	// single writer model.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s.db = db
	s.log.Info().Str("path", path).Msg("connected to database")
	return s, nil
}

// BulkInsert writes records in batches of batchSize, each batch in its own
// transaction. Records whose id is already stored are skipped. It returns
// the number of rows inserted.
//
// Every record must carry a TransactionDate; this is checked before the
// database is touched and a *MissingDateError aborts the whole call.
func (s *SQLite) BulkInsert(ctx context.Context, records []transaction.Transaction, batchSize int) (int, error) {
	for _, rec := range records {
		if rec.TransactionDate == "" {
			return 0, &MissingDateError{ID: rec.ID}
		}
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	s.log.Info().Int("records", len(records)).Int("batch_size", batchSize).Msg("starting bulk import")

	inserted := 0
	for start, batch := 0, 0; start < len(records); start, batch = start+batchSize, batch+1 {
		end := min(start+batchSize, len(records))

		n, err := s.insertBatch(ctx, records[start:end])
		if err != nil {
			s.log.Error().Err(err).Int("batch", batch).Msg("bulk import failed")
			return inserted, &StorageError{Batch: batch, Committed: inserted, Err: err}
		}
		inserted += n
		s.log.Debug().Int("batch", batch).Int("inserted", n).Msg("batch committed")
	}

	s.log.Info().
		Int("inserted", inserted).
		Int("skipped", len(records)-inserted).
		Msg("bulk import completed")
	return inserted, nil
}

func (s *SQLite) insertBatch(ctx context.Context, batch []transaction.Transaction) (n int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertOrIgnore)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range batch {
		res, err := stmt.ExecContext(ctx,
			rec.ID, rec.Category, rec.Name, rec.Quantity,
			rec.AmountExclTax.InexactFloat64(), rec.AmountIncTax.InexactFloat64(),
			rec.TransactionDate,
			rec.ID,
		)
		if err != nil {
			return 0, fmt.Errorf("insert %q: %w", rec.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert %q: %w", rec.ID, err)
		}
		n += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
