package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/retail/transaction"
)

func sampleBalances() []CumulatedBalance {
	return []CumulatedBalance{
		{Date: "2001-01-01", Balance: dec("156"), RunningTotal: dec("156")},
		{Date: "2001-02-01", Balance: dec("-60"), RunningTotal: dec("96")},
	}
}

func TestFormatBalancesOrg(t *testing.T) {
	t.Parallel()

	out := FormatBalancesOrg("Amazon Echo Dot", sampleBalances())

	assert.Contains(t, out, "** Balance: Amazon Echo Dot")
	assert.Contains(t, out, ":DAYS: 2")
	assert.Contains(t, out, ":TOTAL: 96.00")
	assert.Contains(t, out, "| 2001-01-01 | 156.00 | 156.00 |")
	assert.Contains(t, out, "| 2001-02-01 | -60.00 | 96.00 |")
}

func TestFormatBalancesOrgEmpty(t *testing.T) {
	t.Parallel()

	out := FormatBalancesOrg("Ray-Ban", nil)
	assert.Contains(t, out, ":DAYS: 0")
	assert.NotContains(t, out, ":TOTAL:")
}

func TestWriteBalancesCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteBalancesCSV(&buf, sampleBalances()))

	want := "transaction_date,balance,running_total\n" +
		"2001-01-01,156.00,156.00\n" +
		"2001-02-01,-60.00,96.00\n"
	assert.Equal(t, want, buf.String())
}

func TestFormatTransactionsOrg(t *testing.T) {
	t.Parallel()

	recs := []transaction.Transaction{
		{ID: "94ca3d4f", Category: "SELL", Name: "Amazon Echo Dot", Quantity: 10,
			AmountExclTax: dec("100"), AmountIncTax: dec("120"), TransactionDate: "2022-01-15"},
		{ID: "9a348783", Category: "BUY", Name: "Amazon Echo Dot", Quantity: 5,
			AmountExclTax: dec("50"), AmountIncTax: dec("60"), TransactionDate: "2022-01-15"},
	}

	out := FormatTransactionsOrg(recs)
	assert.Contains(t, out, "** SELL Amazon Echo Dot (94ca3d4f)")
	assert.Contains(t, out, ":QUANTITY: 10")
	assert.Contains(t, out, ":AMOUNT_INC_TAX: 120.00")
	assert.Contains(t, out, "** BUY Amazon Echo Dot (9a348783)")
	assert.Contains(t, out, ":DATE: 2022-01-15")
	assert.Empty(t, FormatTransactionsOrg(nil))
}
