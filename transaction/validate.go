package transaction

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of decimal places monetary fields keep.
const AmountPlaces = 2

var (
	errMissing     = errors.New("missing value")
	errUnsupported = errors.New("unsupported type")
	errNotIntegral = errors.New("not an integer")
	errNotFinite   = errors.New("not a finite number")
)

// ValidateRow coerces a raw row into a Transaction. The returned
// Transaction has no date; the Transformer attaches it per batch.
//
// If the id cannot be read the error is ErrUnrecoverableID. Any other
// failing field yields a *ConversionError carrying the id.
func ValidateRow(row RawRow) (Transaction, error) {
	id, err := toString(row[ColID])
	if err != nil || id == "" {
		return Transaction{}, ErrUnrecoverableID
	}

	tx := Transaction{ID: id}
	fail := func(field string, err error) (Transaction, error) {
		return Transaction{}, &ConversionError{ID: id, Field: field, Value: row[field], Err: err}
	}

	if tx.Category, err = toString(row[ColCategory]); err != nil {
		return fail(ColCategory, err)
	}
	if tx.Name, err = toString(row[ColDescription]); err != nil {
		return fail(ColDescription, err)
	}
	if tx.Quantity, err = toInt(row[ColQuantity]); err != nil {
		return fail(ColQuantity, err)
	}
	if tx.AmountExclTax, err = toAmount(row[ColAmountExclTax]); err != nil {
		return fail(ColAmountExclTax, err)
	}
	if tx.AmountIncTax, err = toAmount(row[ColAmountIncTax]); err != nil {
		return fail(ColAmountIncTax, err)
	}
	return tx, nil
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", errMissing
	case string:
		return strings.TrimSpace(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", errNotFinite
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case decimal.Decimal:
		return x.String(), nil
	case fmt.Stringer:
		return strings.TrimSpace(x.String()), nil
	default:
		return "", errUnsupported
	}
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, errMissing
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, errNotFinite
		}
		if x != math.Trunc(x) {
			return 0, errNotIntegral
		}
		return int64(x), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, errMissing
		}
		return strconv.ParseInt(s, 10, 64)
	default:
		return 0, errUnsupported
	}
}

func toAmount(v any) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch x := v.(type) {
	case nil:
		return decimal.Zero, errMissing
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, errNotFinite
		}
		d = decimal.NewFromFloat(x)
	case decimal.Decimal:
		d = x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.Zero, errMissing
		}
		var err error
		if d, err = decimal.NewFromString(s); err != nil {
			return decimal.Zero, err
		}
	default:
		return decimal.Zero, errUnsupported
	}
	return d.Round(AmountPlaces), nil
}
