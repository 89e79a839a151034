package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rustyeddy/retail/transaction"
)

// FormatTransactionOrg renders one stored transaction as an Org-mode heading.
func FormatTransactionOrg(t transaction.Transaction) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("** %s %s (%s)\n", t.Category, t.Name, t.ID))
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":ID: %s\n", t.ID))
	b.WriteString(fmt.Sprintf(":CATEGORY: %s\n", t.Category))
	b.WriteString(fmt.Sprintf(":NAME: %s\n", t.Name))
	b.WriteString(fmt.Sprintf(":QUANTITY: %d\n", t.Quantity))
	b.WriteString(fmt.Sprintf(":AMOUNT_EXCL_TAX: %s\n", t.AmountExclTax.StringFixed(2)))
	b.WriteString(fmt.Sprintf(":AMOUNT_INC_TAX: %s\n", t.AmountIncTax.StringFixed(2)))
	b.WriteString(fmt.Sprintf(":DATE: %s\n", t.TransactionDate))
	b.WriteString(":END:\n")
	return b.String()
}

func FormatTransactionsOrg(recs []transaction.Transaction) string {
	var b strings.Builder
	for i, t := range recs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTransactionOrg(t))
	}
	return b.String()
}

// FormatBalancesOrg renders cumulated balances for name as an Org-mode
// heading and table, ready to paste into a notes file.
func FormatBalancesOrg(name string, rows []CumulatedBalance) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("** Balance: %s\n", name))
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":PRODUCT: %s\n", name))
	b.WriteString(fmt.Sprintf(":DAYS: %d\n", len(rows)))
	if len(rows) > 0 {
		b.WriteString(fmt.Sprintf(":FIRST_DATE: %s\n", rows[0].Date))
		b.WriteString(fmt.Sprintf(":LAST_DATE: %s\n", rows[len(rows)-1].Date))
		b.WriteString(fmt.Sprintf(":TOTAL: %s\n", rows[len(rows)-1].RunningTotal.StringFixed(2)))
	}
	b.WriteString(":END:\n\n")

	b.WriteString("| Date | Balance | Running total |\n")
	b.WriteString("|------+---------+---------------|\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			r.Date, r.Balance.StringFixed(2), r.RunningTotal.StringFixed(2)))
	}
	return b.String()
}

// WriteBalancesCSV writes rows as transaction_date,balance,running_total.
func WriteBalancesCSV(w io.Writer, rows []CumulatedBalance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"transaction_date", "balance", "running_total"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Date,
			r.Balance.StringFixed(2),
			r.RunningTotal.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
