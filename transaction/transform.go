package transaction

import (
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Result is the outcome of transforming one batch.
type Result struct {
	// Clean records in input order, deduplicated and dated.
	Clean []Transaction

	// Malformed ids in input order.
	Malformed []string

	// Duplicates lists every id removed because it occurred more than
	// once among otherwise clean rows, in first-seen order.
	Duplicates []string

	// Dropped counts rows whose id could not be recovered.
	Dropped int
}

// Transformer validates, deduplicates and dates a batch of raw rows.
type Transformer struct {
	log zerolog.Logger
}

// NewTransformer returns a Transformer logging to log.
func NewTransformer(log zerolog.Logger) *Transformer {
	return &Transformer{log: log.With().Str("component", "transformer").Logger()}
}

// CheckSchema fails unless columns is exactly the set in Columns.
func CheckSchema(columns []string) error {
	want := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		want[c] = false
	}

	var e SchemaMismatchError
	for _, c := range columns {
		seen, ok := want[c]
		switch {
		case !ok:
			e.Unexpected = append(e.Unexpected, c)
		case seen:
			e.Duplicated = append(e.Duplicated, c)
		default:
			want[c] = true
		}
	}
	for c, seen := range want {
		if !seen {
			e.Missing = append(e.Missing, c)
		}
	}
	sort.Strings(e.Missing)

	if len(e.Missing) > 0 || len(e.Unexpected) > 0 || len(e.Duplicated) > 0 {
		return &e
	}
	return nil
}

// Transform runs ValidateRow over every row of t and returns the clean,
// deduplicated records stamped with date. The schema is checked before
// any row is looked at.
func (tr *Transformer) Transform(t Table, date string) (Result, error) {
	if err := CheckSchema(t.Columns); err != nil {
		return Result{}, err
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return Result{}, ErrMissingDate
	}

	var res Result
	candidates := make([]Transaction, 0, len(t.Rows))
	for i, row := range t.Rows {
		tx, err := ValidateRow(row)
		if err != nil {
			var ce *ConversionError
			switch {
			case errors.As(err, &ce):
				tr.log.Debug().Int("row", i).Err(err).Msg("malformed row")
				res.Malformed = append(res.Malformed, ce.ID)
			default:
				res.Dropped++
			}
			continue
		}
		candidates = append(candidates, tx)
	}

	counts := make(map[string]int, len(candidates))
	for _, tx := range candidates {
		counts[tx.ID]++
	}

	res.Clean = make([]Transaction, 0, len(candidates))
	reported := make(map[string]bool)
	for _, tx := range candidates {
		if counts[tx.ID] > 1 {
			if !reported[tx.ID] {
				reported[tx.ID] = true
				res.Duplicates = append(res.Duplicates, tx.ID)
			}
			continue
		}
		tx.TransactionDate = date
		res.Clean = append(res.Clean, tx)
	}

	if len(res.Malformed) > 0 {
		tr.log.Warn().Strs("ids", res.Malformed).Msg("bad lines in batch")
	}
	if res.Dropped > 0 {
		tr.log.Debug().Int("dropped", res.Dropped).Msg("rows without a readable id")
	}
	tr.log.Info().
		Int("rows", len(t.Rows)).
		Int("clean", len(res.Clean)).
		Int("malformed", len(res.Malformed)).
		Int("duplicates", len(res.Duplicates)).
		Str("date", date).
		Msg("batch transformed")

	return res, nil
}
