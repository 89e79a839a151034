package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/retail/pipeline"
	"github.com/rustyeddy/retail/pkg/id"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest, transform and load a daily export",
	Long: `Run the pipeline on one daily export.

The export is copied into the datalake under <root>/YYYY/MM/DD, its rows are
validated and deduplicated, the clean records are archived as parquet and then
loaded into SQLite. Records already stored are skipped, so a run can be
repeated safely.

Examples:
  retail run
  retail run --dir ./data
  retail run --file ./data/retail_15_01_2022.csv --db retail.db`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runFile string
	runDir  string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "export file to load")
	runCmd.Flags().StringVarP(&runDir, "dir", "d", "", "folder holding exactly one export (default from config)")
	runCmd.MarkFlagsMutuallyExclusive("file", "dir")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := pipeline.New(cfg, pipeline.SQLiteOpener(cfg.Store.DBPath, log), pipeline.WithLogger(log))

	var rep pipeline.Report
	if runFile != "" {
		rep, err = p.Run(ctx, runFile)
	} else {
		dir := runDir
		if dir == "" {
			dir = cfg.Datalake.Incoming
		}
		rep, err = p.RunDir(ctx, dir)
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", rep.RunID, err)
	}

	printReport(cmd.OutOrStdout(), rep)
	return nil
}

func printReport(w io.Writer, rep pipeline.Report) {
	fmt.Fprintf(w, "✓ Loaded %s (%s)\n", rep.File, rep.Date)
	fmt.Fprintf(w, "  Run:        %s\n", rep.RunID)
	if started, err := id.Time(rep.RunID); err == nil {
		fmt.Fprintf(w, "  Started:    %s\n", started.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "  Raw copy:   %s\n", rep.RawPath)
	if rep.Archived {
		fmt.Fprintf(w, "  Archive:    %s\n", rep.ArchivePath)
	} else {
		fmt.Fprintf(w, "  Archive:    %s (already present)\n", rep.ArchivePath)
	}
	fmt.Fprintf(w, "  Rows:       %d\n", rep.Rows)
	fmt.Fprintf(w, "  Clean:      %d\n", rep.Clean)
	fmt.Fprintf(w, "  Inserted:   %d (skipped %d)\n", rep.Inserted, rep.Skipped())
	if rep.Attempts > 1 {
		fmt.Fprintf(w, "  Attempts:   %d\n", rep.Attempts)
	}
	if rep.Dropped > 0 {
		fmt.Fprintf(w, "  Dropped:    %d (no usable id)\n", rep.Dropped)
	}
	if len(rep.Duplicates) > 0 {
		fmt.Fprintf(w, "  Duplicates: %d\n", len(rep.Duplicates))
		for _, dup := range rep.Duplicates {
			fmt.Fprintf(w, "    - %s\n", dup)
		}
	}
	if len(rep.Malformed) > 0 {
		fmt.Fprintf(w, "  Malformed:  %d\n", len(rep.Malformed))
		for _, bad := range rep.Malformed {
			fmt.Fprintf(w, "    - %s\n", bad)
		}
	}
}
