package datalake

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/retail/transaction"
)

// archiveRow is the parquet layout of a clean transaction.
type archiveRow struct {
	ID              string  `parquet:"id"`
	Category        string  `parquet:"category"`
	Name            string  `parquet:"name"`
	Quantity        int64   `parquet:"quantity"`
	AmountExclTax   float64 `parquet:"amount_excl_tax"`
	AmountIncTax    float64 `parquet:"amount_inc_tax"`
	TransactionDate string  `parquet:"transaction_date"`
}

// ArchivePath is where the clean records of raw are archived.
func (l *Lake) ArchivePath(raw RawFile) string {
	return filepath.Join(raw.Dir, raw.Meta.Stem()+".parquet")
}

// Archive writes records next to the raw copy as parquet. If the archive
// already exists it is left untouched and Archive returns false.
func (l *Lake) Archive(ctx context.Context, raw RawFile, records []transaction.Transaction) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	path := l.ArchivePath(raw)
	if _, err := os.Stat(path); err == nil {
		l.log.Info().Str("path", path).Msg("archive exists, skipping")
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	rows := make([]archiveRow, len(records))
	for i, r := range records {
		rows[i] = archiveRow{
			ID:              r.ID,
			Category:        r.Category,
			Name:            r.Name,
			Quantity:        r.Quantity,
			AmountExclTax:   r.AmountExclTax.InexactFloat64(),
			AmountIncTax:    r.AmountIncTax.InexactFloat64(),
			TransactionDate: r.TransactionDate,
		}
	}

	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("write archive %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("write archive %s: %w", path, err)
	}

	l.log.Info().Str("path", path).Int("records", len(records)).Msg("archive written")
	return true, nil
}

// ReadArchive loads an archive written by Archive.
func ReadArchive(path string) ([]transaction.Transaction, error) {
	rows, err := parquet.ReadFile[archiveRow](path)
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}

	out := make([]transaction.Transaction, len(rows))
	for i, r := range rows {
		out[i] = transaction.Transaction{
			ID:              r.ID,
			Category:        r.Category,
			Name:            r.Name,
			Quantity:        r.Quantity,
			AmountExclTax:   decimal.NewFromFloat(r.AmountExclTax).Round(transaction.AmountPlaces),
			AmountIncTax:    decimal.NewFromFloat(r.AmountIncTax).Round(transaction.AmountPlaces),
			TransactionDate: r.TransactionDate,
		}
	}
	return out, nil
}
