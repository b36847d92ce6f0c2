package model

import "time"

// DailySales is the per-calendar-day rollup of fact_sales.
type DailySales struct {
	DateKey             int
	TotalRevenue        float64
	TotalQuantity       int
	TransactionCount    int
	AvgTransactionValue float64
}

// ProductPerformance is the per-product rollup with a revenue rank.
// Rank is dense over revenue descending; ties break on ProductKey ascending.
type ProductPerformance struct {
	ProductKey    int64
	ProductID     string
	ProductName   string
	Category      string
	TotalRevenue  float64
	TotalQuantity int
	OrderCount    int
	RevenueRank   int
}

// CustomerMetrics is the per-customer rollup. DaysSinceLastOrder is measured
// against the as-of time passed to the aggregator, never the wall clock.
type CustomerMetrics struct {
	CustomerKey        int64
	CustomerID         string
	TotalSpend         float64
	OrderCount         int
	AvgOrderValue      float64
	LastOrderDate      time.Time
	DaysSinceLastOrder int
}

// AggregateSet holds the pre-computed rollups for one pipeline run.
type AggregateSet struct {
	DailySales         []DailySales
	ProductPerformance []ProductPerformance
	CustomerMetrics    []CustomerMetrics
}
