package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/retail/store"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query loaded transactions",
	Long: `Query the transactions loaded into the SQLite database.

Subcommands:
  count    - Number of transactions for a date
  total    - Number of stored transactions
  sum      - Sum of amount_inc_tax over all transactions
  balance  - SELL minus BUY per date for a product
  day      - List the transactions of a date
  get      - Show one transaction by id

Examples:
  retail query count --date 2022-01-15
  retail query balance "Amazon Echo Dot" --cumulated
  retail query balance "Amazon Echo Dot" --cumulated --csv echo.csv`,
}

var queryCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count transactions for a date",
	Args:  cobra.NoArgs,
	RunE:  runQueryCount,
}

var queryTotalCmd = &cobra.Command{
	Use:   "total",
	Short: "Count all stored transactions",
	Args:  cobra.NoArgs,
	RunE:  runQueryTotal,
}

var querySumCmd = &cobra.Command{
	Use:   "sum",
	Short: "Sum amount_inc_tax over all transactions",
	Args:  cobra.NoArgs,
	RunE:  runQuerySum,
}

var queryBalanceCmd = &cobra.Command{
	Use:   "balance <name>",
	Short: "Balance per date for a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueryBalance,
}

var queryDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List the transactions of a date",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueryDay,
}

var queryGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueryGet,
}

var (
	queryDate      string
	queryCumulated bool
	queryCSV       string
)

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(queryCountCmd)
	queryCmd.AddCommand(queryTotalCmd)
	queryCmd.AddCommand(querySumCmd)
	queryCmd.AddCommand(queryBalanceCmd)
	queryCmd.AddCommand(queryDayCmd)
	queryCmd.AddCommand(queryGetCmd)

	queryCountCmd.Flags().StringVar(&queryDate, "date", "", "transaction date YYYY-MM-DD (required)")
	queryCountCmd.MarkFlagRequired("date")

	queryBalanceCmd.Flags().BoolVar(&queryCumulated, "cumulated", false, "add the running total and print an Org table")
	queryBalanceCmd.Flags().StringVar(&queryCSV, "csv", "", "also write the cumulated balance to this CSV file")
}

func openStore() (*store.SQLite, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	s, err := store.NewSQLite(cfg.Store.DBPath, store.WithLogger(log), store.MustExist())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return s, nil
}

func runQueryCount(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.CountByDate(cmd.Context(), queryDate)
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}

func runQueryTotal(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.TotalCount(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}

func runQuerySum(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	sum, err := s.SumAmount(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(sum.StringFixed(2))
	return nil
}

func runQueryBalance(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	name := args[0]
	if !queryCumulated && queryCSV == "" {
		rows, err := s.BalanceByDate(cmd.Context(), name)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Printf("no transactions for %q\n", name)
			return nil
		}
		for _, r := range rows {
			fmt.Printf("%s  %s\n", r.Date, r.Balance.StringFixed(2))
		}
		return nil
	}

	rows, err := s.CumulatedBalanceByDate(cmd.Context(), name)
	if errors.Is(err, store.ErrNoData) {
		fmt.Printf("no transactions for %q\n", name)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println(store.FormatBalancesOrg(name, rows))

	if queryCSV != "" {
		f, err := os.Create(queryCSV)
		if err != nil {
			return fmt.Errorf("create %s: %w", queryCSV, err)
		}
		if err := store.WriteBalancesCSV(f, rows); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", queryCSV, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %d rows to %s\n", len(rows), queryCSV)
	}
	return nil
}

func runQueryDay(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	recs, err := s.ListByDate(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query transactions: %w", err)
	}
	fmt.Println(store.FormatTransactionsOrg(recs))
	return nil
}

func runQueryGet(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.GetTransaction(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	fmt.Println(store.FormatTransactionOrg(rec))
	return nil
}
