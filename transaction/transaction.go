package transaction

import (
	"github.com/shopspring/decimal"
)

// Recognized input columns.
const (
	ColID            = "id"
	ColCategory      = "category"
	ColDescription   = "description"
	ColQuantity      = "quantity"
	ColAmountExclTax = "amount_excl_tax"
	ColAmountIncTax  = "amount_inc_tax"
)

// Columns lists the exact header an input table must carry.
var Columns = []string{
	ColID,
	ColCategory,
	ColDescription,
	ColQuantity,
	ColAmountExclTax,
	ColAmountIncTax,
}

// Categories the store knows how to balance. Anything else counts as zero.
const (
	CategorySell = "SELL"
	CategoryBuy  = "BUY"
)

// DateLayout is the layout of Transaction.TransactionDate.
const DateLayout = "2006-01-02"

// RawRow is a single untyped input row keyed by column name. Missing
// cells are nil.
type RawRow map[string]any

// Table is a tabular input: the header as read plus its rows in order.
type Table struct {
	Columns []string
	Rows    []RawRow
}

// Transaction is a validated, typed retail record ready to be persisted.
type Transaction struct {
	ID              string
	Category        string
	Name            string
	Quantity        int64
	AmountExclTax   decimal.Decimal
	AmountIncTax    decimal.Decimal
	TransactionDate string
}
