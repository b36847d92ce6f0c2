package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datamill-io/ecomflow/internal/db"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the most recent run's data-quality report",
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	report, err := db.GetMetadataValue(ctx, pool, "last_run_report")
	if err != nil {
		return fmt.Errorf("no run report found; run 'ecomflow run' first")
	}

	cmd.Println(report)
	return nil
}
