// Package pipeline sequences the batch ETL stages: staging load, quality
// gate, normalization, warehouse build, aggregation. Stages run strictly
// one after another; each stage's output is the next stage's sole input,
// and each stage commits atomically through the injected Store before the
// next one starts.
package pipeline

import (
	"context"
	"time"

	"github.com/datamill-io/ecomflow/internal/aggregate"
	"github.com/datamill-io/ecomflow/internal/logging"
	"github.com/datamill-io/ecomflow/internal/model"
	"github.com/datamill-io/ecomflow/internal/production"
	"github.com/datamill-io/ecomflow/internal/quality"
	"github.com/datamill-io/ecomflow/internal/staging"
	"github.com/datamill-io/ecomflow/internal/warehouse"
)

// Store is the storage capability the pipeline depends on. Each method
// must be all-or-nothing: either the stage's entire output is committed or
// none of it is.
type Store interface {
	ReplaceStaging(ctx context.Context, set model.StagingSet) error
	ReplaceProduction(ctx context.Context, set model.ProductionSet) error
	ReplaceWarehouse(ctx context.Context, set model.WarehouseSet) error
	ReplaceAggregates(ctx context.Context, set model.AggregateSet) error
}

// Options configure one pipeline run.
type Options struct {
	// InputDir holds the raw CSV feeds.
	InputDir string

	// AsOf anchors the recency metrics in the customer aggregates. It is
	// explicit so that aggregation stays a pure function of its inputs.
	AsOf time.Time

	// DateRange optionally overrides the calendar dimension bounds.
	DateRange *warehouse.DateRange
}

// RunReport is the user-visible outcome of a completed run: the quality
// gate's report plus the referential violations recorded downstream, and
// row counts per produced table.
type RunReport struct {
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt time.Time            `json:"completed_at"`
	AsOf        time.Time            `json:"as_of"`
	Quality     *quality.Report      `json:"quality"`
	Violations  []model.RefViolation `json:"referential_violations,omitempty"`
	RowCounts   map[string]int       `json:"row_counts"`
}

// Run executes the full pipeline. It either returns a report (possibly
// recording exclusions) or an error identifying the failed stage; there is
// no partial success.
func Run(ctx context.Context, store Store, opts Options) (*RunReport, error) {
	report := &RunReport{
		StartedAt: time.Now().UTC(),
		AsOf:      opts.AsOf,
		RowCounts: make(map[string]int),
	}

	logging.Info().Str("input", opts.InputDir).Msg("Loading raw feeds into staging")
	staged, err := staging.LoadDir(opts.InputDir)
	if err != nil {
		return nil, fatal("staging", err)
	}
	if err := store.ReplaceStaging(ctx, staged); err != nil {
		return nil, fatal("staging", err)
	}
	report.RowCounts["staging.customers"] = len(staged.Customers)
	report.RowCounts["staging.products"] = len(staged.Products)
	report.RowCounts["staging.transactions"] = len(staged.Transactions)
	report.RowCounts["staging.transaction_items"] = len(staged.Items)

	logging.Info().Msg("Running quality gate")
	gated, err := quality.Gate(staged)
	if err != nil {
		return nil, fatal("quality_gate", err)
	}
	report.Quality = gated.Report
	for _, rej := range gated.Rejected {
		logging.Debug().
			Str("entity", rej.Entity).
			Str("row", rej.RowID).
			Str("reason", rej.Reason).
			Msg("Row rejected")
	}
	logging.Info().
		Int("rejected", gated.Report.TotalRejected()).
		Msg("Quality gate complete")

	logging.Info().Msg("Normalizing into production schema")
	normalized, err := production.Normalize(gated.Accepted)
	if err != nil {
		return nil, fatal("normalize", err)
	}
	report.recordViolations(normalized.Violations)
	if err := store.ReplaceProduction(ctx, normalized.Production); err != nil {
		return nil, fatal("normalize", err)
	}
	prod := normalized.Production
	report.RowCounts["production.customers"] = len(prod.Customers)
	report.RowCounts["production.products"] = len(prod.Products)
	report.RowCounts["production.transactions"] = len(prod.Transactions)
	report.RowCounts["production.transaction_items"] = len(prod.Items)

	logging.Info().Msg("Building warehouse dimensions and facts")
	built, err := warehouse.Build(prod, opts.DateRange)
	if err != nil {
		return nil, fatal("warehouse", err)
	}
	report.recordViolations(built.Violations)
	if err := store.ReplaceWarehouse(ctx, built.Warehouse); err != nil {
		return nil, fatal("warehouse", err)
	}
	wh := built.Warehouse
	report.RowCounts["warehouse.dim_customer"] = len(wh.Customers)
	report.RowCounts["warehouse.dim_product"] = len(wh.Products)
	report.RowCounts["warehouse.dim_date"] = len(wh.Dates)
	report.RowCounts["warehouse.dim_payment_method"] = len(wh.PaymentMethods)
	report.RowCounts["warehouse.fact_sales"] = len(wh.Facts)

	logging.Info().Time("as_of", opts.AsOf).Msg("Computing aggregates")
	aggs := aggregate.Compute(wh, opts.AsOf)
	if err := aggregate.Verify(aggs, wh.Facts); err != nil {
		return nil, fatal("aggregate", err)
	}
	if err := store.ReplaceAggregates(ctx, aggs); err != nil {
		return nil, fatal("aggregate", err)
	}
	report.RowCounts["warehouse.agg_daily_sales"] = len(aggs.DailySales)
	report.RowCounts["warehouse.agg_product_performance"] = len(aggs.ProductPerformance)
	report.RowCounts["warehouse.agg_customer_metrics"] = len(aggs.CustomerMetrics)

	report.CompletedAt = time.Now().UTC()
	logging.Info().
		Int("facts", len(wh.Facts)).
		Int("rejected", report.Quality.TotalRejected()).
		Int("referential_violations", len(report.Violations)).
		Msg("Pipeline run complete")

	return report, nil
}

func (r *RunReport) recordViolations(violations []model.RefViolation) {
	for _, v := range violations {
		logging.Warn().
			Str("entity", v.Entity).
			Str("row", v.RowID).
			Str("ref_entity", v.RefEntity).
			Str("ref_key", v.RefKey).
			Msg("Referential violation, row excluded")
	}
	r.Violations = append(r.Violations, violations...)
}
