// Package store persists clean transactions and answers aggregate queries
// over them.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/retail/transaction"
	"github.com/shopspring/decimal"
)

// DefaultBatchSize is used when BulkInsert is given a non-positive batch size.
const DefaultBatchSize = 20

var (
	ErrMissingDate = errors.New("transaction date is missing")
	ErrStorage     = errors.New("storage error")

	// ErrNoData is returned by CumulatedBalanceByDate when no row matches
	// the product name.
	ErrNoData = errors.New("no data")

	ErrNotFound = errors.New("not found")

	// ErrNoDatabase is returned by NewSQLite with MustExist when the file
	// is absent.
	ErrNoDatabase = errors.New("database does not exist")
)

// Store is the narrow persistence surface the pipeline and CLI use.
type Store interface {
	BulkInsert(ctx context.Context, records []transaction.Transaction, batchSize int) (int, error)
	CountByDate(ctx context.Context, date string) (int, error)
	TotalCount(ctx context.Context) (int, error)
	SumAmount(ctx context.Context) (decimal.Decimal, error)
	BalanceByDate(ctx context.Context, name string) ([]DateBalance, error)
	CumulatedBalanceByDate(ctx context.Context, name string) ([]CumulatedBalance, error)
	Close() error
}

// DateBalance is SELL minus BUY for one product on one date.
type DateBalance struct {
	Date    string
	Balance decimal.Decimal
}

// CumulatedBalance adds the running total up to and including Date.
type CumulatedBalance struct {
	Date         string
	Balance      decimal.Decimal
	RunningTotal decimal.Decimal
}

// MissingDateError names the first record found without a date.
type MissingDateError struct {
	ID string
}

func (e *MissingDateError) Error() string {
	return fmt.Sprintf("record %q: %s", e.ID, ErrMissingDate)
}

func (e *MissingDateError) Is(target error) bool {
	return target == ErrMissingDate
}

// StorageError reports a batch that was rolled back. Committed is the
// number of rows inserted by earlier batches, which stay in the store.
type StorageError struct {
	Batch     int
	Committed int
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: batch %d rolled back (%d rows committed before): %v",
		ErrStorage, e.Batch, e.Committed, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
