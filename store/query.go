package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/retail/transaction"
)

const balanceByDateQuery = `
	SELECT transaction_date,
	       COALESCE(SUM(CASE
	               WHEN category = 'SELL' THEN amount_inc_tax
	               WHEN category = 'BUY' THEN -amount_inc_tax
	               ELSE 0
	           END), 0) AS balance
	FROM transactions
	WHERE name = ?
	GROUP BY transaction_date
	ORDER BY transaction_date ASC`

// CountByDate returns how many stored transactions carry date.
func (s *SQLite) CountByDate(ctx context.Context, date string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE transaction_date = ?`, date).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by date %s: %w", date, err)
	}
	s.log.Debug().Str("date", date).Int("count", n).Msg("count by date")
	return n, nil
}

// TotalCount returns the number of stored transactions.
func (s *SQLite) TotalCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("total count: %w", err)
	}
	return n, nil
}

// SumAmount returns the sum of amount_inc_tax, or zero for an empty store.
func (s *SQLite) SumAmount(ctx context.Context) (decimal.Decimal, error) {
	var sum sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `SELECT SUM(amount_inc_tax) FROM transactions`).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum amount: %w", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return amount(sum.Float64), nil
}

// BalanceByDate returns SELL minus BUY amounts for name, one row per date
// in ascending order. An unknown name yields an empty slice.
func (s *SQLite) BalanceByDate(ctx context.Context, name string) ([]DateBalance, error) {
	rows, err := s.db.QueryContext(ctx, balanceByDateQuery, name)
	if err != nil {
		return nil, fmt.Errorf("balance by date %q: %w", name, err)
	}
	defer rows.Close()

	out := []DateBalance{}
	for rows.Next() {
		var (
			date    string
			balance float64
		)
		if err := rows.Scan(&date, &balance); err != nil {
			return nil, fmt.Errorf("balance by date %q: %w", name, err)
		}
		out = append(out, DateBalance{Date: date, Balance: amount(balance)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("balance by date %q: %w", name, err)
	}
	return out, nil
}

// CumulatedBalanceByDate is BalanceByDate with a running total. It returns
// ErrNoData when name has never been stored, so callers can tell that
// apart from a product whose balance nets to zero.
func (s *SQLite) CumulatedBalanceByDate(ctx context.Context, name string) ([]CumulatedBalance, error) {
	balances, err := s.BalanceByDate(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(balances) == 0 {
		s.log.Info().Str("name", name).Msg("no data found for product")
		return nil, fmt.Errorf("product %q: %w", name, ErrNoData)
	}

	out := make([]CumulatedBalance, len(balances))
	running := decimal.Zero
	for i, b := range balances {
		running = running.Add(b.Balance)
		out[i] = CumulatedBalance{Date: b.Date, Balance: b.Balance, RunningTotal: running}
	}
	return out, nil
}

// GetTransaction returns a single stored transaction by id.
func (s *SQLite) GetTransaction(ctx context.Context, id string) (transaction.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, category, name, quantity, amount_excl_tax, amount_inc_tax, transaction_date
		FROM transactions
		WHERE id = ?
		LIMIT 1`, id)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transaction.Transaction{}, fmt.Errorf("transaction %q: %w", id, ErrNotFound)
		}
		return transaction.Transaction{}, err
	}
	return tx, nil
}

// ListByDate returns the transactions stored for date ordered by id.
func (s *SQLite) ListByDate(ctx context.Context, date string) ([]transaction.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, name, quantity, amount_excl_tax, amount_inc_tax, transaction_date
		FROM transactions
		WHERE transaction_date = ?
		ORDER BY id ASC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(sc scanner) (transaction.Transaction, error) {
	var (
		tx        transaction.Transaction
		excl, inc float64
	)
	if err := sc.Scan(
		&tx.ID,
		&tx.Category,
		&tx.Name,
		&tx.Quantity,
		&excl,
		&inc,
		&tx.TransactionDate,
	); err != nil {
		return transaction.Transaction{}, err
	}
	tx.AmountExclTax = amount(excl)
	tx.AmountIncTax = amount(inc)
	return tx, nil
}

// amount converts a REAL column back to a 2 place decimal.
func amount(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(transaction.AmountPlaces)
}
