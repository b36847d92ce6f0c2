package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/datamill-io/ecomflow/internal/config"
	"github.com/datamill-io/ecomflow/internal/db"
	"github.com/datamill-io/ecomflow/internal/logging"
	"github.com/datamill-io/ecomflow/internal/pipeline"
	"github.com/datamill-io/ecomflow/internal/warehouse"
)

var (
	runInputDir   string
	runAsOf       string
	runRangeStart string
	runRangeEnd   string
	runReportFile string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full batch pipeline",
	Long: `Run the batch pipeline end-to-end against an initialized database:
load the raw CSV feeds into staging, validate them through the quality
gate, normalize into the production schema, rebuild the warehouse star
schema, and pre-compute the aggregates.

Stages run strictly in sequence and each commits atomically; the run
either finishes with a data-quality report or aborts with a
stage-identified fatal error.

Example:
  ecomflow run --input data/raw --connection "postgres://..."`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runInputDir, "input", "",
		"directory containing the raw CSV feeds")
	runCmd.Flags().StringVar(&runAsOf, "as-of", "",
		"reference time for recency metrics (RFC 3339 or YYYY-MM-DD, default: now)")
	runCmd.Flags().StringVar(&runRangeStart, "date-range-start", "",
		"calendar dimension start date (default: min transaction date)")
	runCmd.Flags().StringVar(&runRangeEnd, "date-range-end", "",
		"calendar dimension end date (default: max transaction date)")
	runCmd.Flags().StringVar(&runReportFile, "report-file", "",
		"write the run report JSON to this file")
}

func runRun(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if runInputDir != "" {
		cfg.Run.InputDir = runInputDir
	}
	if runAsOf != "" {
		cfg.Run.AsOf = runAsOf
	}
	if runRangeStart != "" {
		cfg.Run.DateRangeStart = runRangeStart
	}
	if runRangeEnd != "" {
		cfg.Run.DateRangeEnd = runRangeEnd
	}
	if runReportFile != "" {
		cfg.Run.ReportFile = runReportFile
	}

	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	asOf := time.Now().UTC()
	if cfg.Run.AsOf != "" {
		asOf, _ = config.ParseTime(cfg.Run.AsOf)
	}

	var dateRange *warehouse.DateRange
	if cfg.Run.DateRangeStart != "" {
		start, _ := time.Parse("2006-01-02", cfg.Run.DateRangeStart)
		end, _ := time.Parse("2006-01-02", cfg.Run.DateRangeEnd)
		dateRange = &warehouse.DateRange{Start: start, End: end}
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if _, err := db.GetMetadataValue(ctx, pool, "schema_version"); err != nil {
		return fmt.Errorf("database has not been initialized; run 'ecomflow init' first")
	}

	logging.Info().
		Str("input", cfg.Run.InputDir).
		Time("as_of", asOf).
		Msg("Starting pipeline run")

	report, err := pipeline.Run(ctx, db.NewStore(pool), pipeline.Options{
		InputDir:  cfg.Run.InputDir,
		AsOf:      asOf,
		DateRange: dateRange,
	})
	if err != nil {
		return err
	}

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize run report: %w", err)
	}

	if err := db.SaveRunMetadata(ctx, pool, report.CompletedAt, reportJSON); err != nil {
		return fmt.Errorf("failed to save run metadata: %w", err)
	}

	if cfg.Run.ReportFile != "" {
		if err := os.WriteFile(cfg.Run.ReportFile, append(reportJSON, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write report file: %w", err)
		}
		logging.Info().Str("file", cfg.Run.ReportFile).Msg("Run report written")
	}

	return nil
}
