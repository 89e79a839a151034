package transaction

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRow() RawRow {
	return RawRow{
		ColID:            "94ca3d4f",
		ColCategory:      "SELL",
		ColDescription:   "Fitbit Charge",
		ColQuantity:      "4",
		ColAmountExclTax: "399.95",
		ColAmountIncTax:  "479.94",
	}
}

func TestValidateRow(t *testing.T) {
	t.Parallel()

	tx, err := ValidateRow(validRow())
	require.NoError(t, err)

	assert.Equal(t, "94ca3d4f", tx.ID)
	assert.Equal(t, "SELL", tx.Category)
	assert.Equal(t, "Fitbit Charge", tx.Name)
	assert.Equal(t, int64(4), tx.Quantity)
	assert.True(t, decimal.RequireFromString("399.95").Equal(tx.AmountExclTax))
	assert.True(t, decimal.RequireFromString("479.94").Equal(tx.AmountIncTax))
	assert.Empty(t, tx.TransactionDate)
}

func TestValidateRowTypedValues(t *testing.T) {
	t.Parallel()

	row := RawRow{
		ColID:            int64(42),
		ColCategory:      "BUY",
		ColDescription:   "Ray-Ban",
		ColQuantity:      5.0,
		ColAmountExclTax: 799.951,
		ColAmountIncTax:  decimal.RequireFromString("959.9449"),
	}

	tx, err := ValidateRow(row)
	require.NoError(t, err)
	assert.Equal(t, "42", tx.ID)
	assert.Equal(t, int64(5), tx.Quantity)
	assert.Equal(t, "799.95", tx.AmountExclTax.StringFixed(2))
	assert.Equal(t, "959.94", tx.AmountIncTax.StringFixed(2))
}

func TestValidateRowRounding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"10", "10.00"},
		{"10.004", "10.00"},
		{"10.005", "10.01"},
		{"-10.005", "-10.01"},
		{" 2639.98 ", "2639.98"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			row := validRow()
			row[ColAmountIncTax] = tt.in
			tx, err := ValidateRow(row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tx.AmountIncTax.StringFixed(2))
		})
	}
}

func TestValidateRowConversionFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field string
		value any
	}{
		{"non numeric quantity", ColQuantity, "four"},
		{"fractional quantity", ColQuantity, "4.5"},
		{"fractional float quantity", ColQuantity, 4.5},
		{"nan quantity", ColQuantity, math.NaN()},
		{"missing quantity", ColQuantity, nil},
		{"unparsable amount", ColAmountExclTax, "12,5O"},
		{"nan amount", ColAmountIncTax, math.NaN()},
		{"missing amount", ColAmountIncTax, nil},
		{"missing category", ColCategory, nil},
		{"missing description", ColDescription, nil},
		{"unsupported type", ColAmountIncTax, []byte("1.00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			row[tt.field] = tt.value

			_, err := ValidateRow(row)
			require.Error(t, err)

			var ce *ConversionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "94ca3d4f", ce.ID)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestValidateRowUnrecoverableID(t *testing.T) {
	t.Parallel()

	for _, id := range []any{nil, "", "   ", math.Inf(1), struct{}{}} {
		row := validRow()
		row[ColID] = id
		row[ColQuantity] = "not a number"

		_, err := ValidateRow(row)
		assert.ErrorIs(t, err, ErrUnrecoverableID)
	}
}
