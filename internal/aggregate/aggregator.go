// Package aggregate pre-computes the warehouse rollups from the fact table.
// Every aggregate is a pure function of the fact snapshot (plus dimension
// attributes) and the explicit as-of time; recomputing from an unchanged
// fact table yields identical rows.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/datamill-io/ecomflow/internal/model"
)

// verifyTolerance absorbs float accumulation noise when reconciling sums.
const verifyTolerance = 0.005

// Compute derives all declared aggregates from the warehouse snapshot.
// asOf anchors the recency metrics; it must be passed in by the caller.
func Compute(wh model.WarehouseSet, asOf time.Time) model.AggregateSet {
	return model.AggregateSet{
		DailySales:         computeDailySales(wh.Facts),
		ProductPerformance: computeProductPerformance(wh),
		CustomerMetrics:    computeCustomerMetrics(wh, asOf),
	}
}

func computeDailySales(facts []model.FactSale) []model.DailySales {
	type acc struct {
		revenue  float64
		quantity int
		txns     map[string]struct{}
	}
	byDate := make(map[int]*acc)
	for _, f := range facts {
		a, ok := byDate[f.DateKey]
		if !ok {
			a = &acc{txns: make(map[string]struct{})}
			byDate[f.DateKey] = a
		}
		a.revenue += f.ExtendedAmount
		a.quantity += f.Quantity
		a.txns[f.TransactionID] = struct{}{}
	}

	rows := make([]model.DailySales, 0, len(byDate))
	for key, a := range byDate {
		count := len(a.txns)
		rows = append(rows, model.DailySales{
			DateKey:             key,
			TotalRevenue:        round2(a.revenue),
			TotalQuantity:       a.quantity,
			TransactionCount:    count,
			AvgTransactionValue: round2(a.revenue / float64(count)),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].DateKey < rows[j].DateKey })
	return rows
}

func computeProductPerformance(wh model.WarehouseSet) []model.ProductPerformance {
	products := make(map[int64]model.DimProduct, len(wh.Products))
	for _, p := range wh.Products {
		products[p.Key] = p
	}

	type acc struct {
		revenue  float64
		quantity int
		orders   map[string]struct{}
	}
	byProduct := make(map[int64]*acc)
	for _, f := range wh.Facts {
		a, ok := byProduct[f.ProductKey]
		if !ok {
			a = &acc{orders: make(map[string]struct{})}
			byProduct[f.ProductKey] = a
		}
		a.revenue += f.ExtendedAmount
		a.quantity += f.Quantity
		a.orders[f.TransactionID] = struct{}{}
	}

	rows := make([]model.ProductPerformance, 0, len(byProduct))
	for key, a := range byProduct {
		dim := products[key]
		rows = append(rows, model.ProductPerformance{
			ProductKey:    key,
			ProductID:     dim.ProductID,
			ProductName:   dim.ProductName,
			Category:      dim.Category,
			TotalRevenue:  round2(a.revenue),
			TotalQuantity: a.quantity,
			OrderCount:    len(a.orders),
		})
	}

	// Rank by revenue descending; ties break on product key ascending.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalRevenue != rows[j].TotalRevenue {
			return rows[i].TotalRevenue > rows[j].TotalRevenue
		}
		return rows[i].ProductKey < rows[j].ProductKey
	})
	for i := range rows {
		rows[i].RevenueRank = i + 1
	}
	return rows
}

func computeCustomerMetrics(wh model.WarehouseSet, asOf time.Time) []model.CustomerMetrics {
	customers := make(map[int64]model.DimCustomer, len(wh.Customers))
	for _, c := range wh.Customers {
		customers[c.Key] = c
	}
	dates := make(map[int]time.Time, len(wh.Dates))
	for _, d := range wh.Dates {
		dates[d.Key] = d.Date
	}

	type acc struct {
		spend       float64
		orders      map[string]struct{}
		lastDateKey int
	}
	byCustomer := make(map[int64]*acc)
	for _, f := range wh.Facts {
		a, ok := byCustomer[f.CustomerKey]
		if !ok {
			a = &acc{orders: make(map[string]struct{})}
			byCustomer[f.CustomerKey] = a
		}
		a.spend += f.ExtendedAmount
		a.orders[f.TransactionID] = struct{}{}
		if f.DateKey > a.lastDateKey {
			a.lastDateKey = f.DateKey
		}
	}

	rows := make([]model.CustomerMetrics, 0, len(byCustomer))
	for key, a := range byCustomer {
		last := dates[a.lastDateKey]
		orders := len(a.orders)
		rows = append(rows, model.CustomerMetrics{
			CustomerKey:        key,
			CustomerID:         customers[key].CustomerID,
			TotalSpend:         round2(a.spend),
			OrderCount:         orders,
			AvgOrderValue:      round2(a.spend / float64(orders)),
			LastOrderDate:      last,
			DaysSinceLastOrder: int(asOf.Sub(last).Hours() / 24),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CustomerKey < rows[j].CustomerKey })
	return rows
}

// Verify reconciles each aggregate's totals against the fact table it was
// computed from. A mismatch is a ConsistencyError: it indicates a logic
// defect and the caller must treat it as fatal.
func Verify(agg model.AggregateSet, facts []model.FactSale) error {
	var factRevenue float64
	factQuantity := 0
	for _, f := range facts {
		factRevenue += f.ExtendedAmount
		factQuantity += f.Quantity
	}
	factRevenue = round2(factRevenue)

	var dailyRevenue float64
	dailyQuantity := 0
	for _, d := range agg.DailySales {
		dailyRevenue += d.TotalRevenue
		dailyQuantity += d.TotalQuantity
	}
	if math.Abs(round2(dailyRevenue)-factRevenue) > verifyTolerance {
		return model.ConsistencyError{
			Aggregate: "agg_daily_sales", Measure: "total_revenue",
			Expected: factRevenue, Got: round2(dailyRevenue),
		}
	}
	if dailyQuantity != factQuantity {
		return model.ConsistencyError{
			Aggregate: "agg_daily_sales", Measure: "total_quantity",
			Expected: float64(factQuantity), Got: float64(dailyQuantity),
		}
	}

	var productRevenue float64
	for _, p := range agg.ProductPerformance {
		productRevenue += p.TotalRevenue
	}
	if math.Abs(round2(productRevenue)-factRevenue) > verifyTolerance {
		return model.ConsistencyError{
			Aggregate: "agg_product_performance", Measure: "total_revenue",
			Expected: factRevenue, Got: round2(productRevenue),
		}
	}

	var customerSpend float64
	for _, c := range agg.CustomerMetrics {
		customerSpend += c.TotalSpend
	}
	if math.Abs(round2(customerSpend)-factRevenue) > verifyTolerance {
		return model.ConsistencyError{
			Aggregate: "agg_customer_metrics", Measure: "total_spend",
			Expected: factRevenue, Got: round2(customerSpend),
		}
	}

	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
