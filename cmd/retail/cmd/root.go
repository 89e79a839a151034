package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/retail/config"
	"github.com/rustyeddy/retail/logger"
)

var rootCmd = &cobra.Command{
	Use:   "retail",
	Short: "Load daily retail transaction exports into SQLite",
	Long: `Retail ingests the daily CSV export of the shop's transactions.

It provides tools for:
  - Archiving raw exports in a date partitioned datalake
  - Validating, normalizing and deduplicating transaction rows
  - Idempotent batched loads into SQLite
  - Counts, totals and per-product balances over the loaded data

A run reads settings from --config, then .env and RETAIL_* variables,
then the command line flags.`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	dbPath   string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
}

// loadConfig resolves the configuration for a command and builds its logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(cfgFile); err != nil {
			return nil, zerolog.Nop(), err
		}
	}
	if err := cfg.ApplyEnv(".env"); err != nil {
		return nil, zerolog.Nop(), err
	}

	if dbPath != "" {
		cfg.Store.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}
