package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datamill-io/ecomflow/internal/logging"
	"github.com/datamill-io/ecomflow/internal/model"
)

// Store persists stage outputs. Each Replace method is one atomic unit:
// it truncates the stage's tables and bulk-loads the new snapshot inside a
// single transaction, so downstream stages never observe a half-written
// table. Upstream schemas are never touched by a downstream stage.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store on top of an established pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ReplaceStaging truncate-and-reloads the staging schema from a snapshot.
func (s *Store) ReplaceStaging(ctx context.Context, set model.StagingSet) error {
	return s.inTx(ctx, "staging", func(tx pgx.Tx) error {
		tables := []string{
			"staging.transaction_items", "staging.transactions",
			"staging.products", "staging.customers",
		}
		if err := truncate(ctx, tx, tables...); err != nil {
			return err
		}

		customers := make([][]any, len(set.Customers))
		for i, c := range set.Customers {
			customers[i] = []any{
				nullable(c.CustomerID), nullable(c.FirstName), nullable(c.LastName),
				nullable(c.Email), nullable(c.Phone), nullable(c.RegistrationDate),
				nullable(c.City), nullable(c.State), nullable(c.Country),
				nullable(c.AgeGroup),
			}
		}
		if err := s.copy(ctx, tx, pgx.Identifier{"staging", "customers"},
			[]string{"customer_id", "first_name", "last_name", "email", "phone",
				"registration_date", "city", "state", "country", "age_group"},
			customers); err != nil {
			return err
		}

		products := make([][]any, len(set.Products))
		for i, p := range set.Products {
			products[i] = []any{
				nullable(p.ProductID), nullable(p.ProductName), nullable(p.Category),
				nullable(p.SubCategory), nullable(p.Price), nullable(p.Cost),
				nullable(p.Brand), nullable(p.StockQuantity), nullable(p.SupplierID),
			}
		}
		if err := s.copy(ctx, tx, pgx.Identifier{"staging", "products"},
			[]string{"product_id", "product_name", "category", "sub_category",
				"price", "cost", "brand", "stock_quantity", "supplier_id"},
			products); err != nil {
			return err
		}

		txns := make([][]any, len(set.Transactions))
		for i, t := range set.Transactions {
			txns[i] = []any{
				nullable(t.TransactionID), nullable(t.CustomerID),
				nullable(t.TransactionDate), nullable(t.TransactionTime),
				nullable(t.PaymentMethod), nullable(t.ShippingAddress),
				nullable(t.TotalAmount),
			}
		}
		if err := s.copy(ctx, tx, pgx.Identifier{"staging", "transactions"},
			[]string{"transaction_id", "customer_id", "transaction_date",
				"transaction_time", "payment_method", "shipping_address",
				"total_amount"},
			txns); err != nil {
			return err
		}

		items := make([][]any, len(set.Items))
		for i, it := range set.Items {
			items[i] = []any{
				nullable(it.ItemID), nullable(it.TransactionID),
				nullable(it.ProductID), nullable(it.Quantity),
				nullable(it.UnitPrice), nullable(it.DiscountPercentage),
				nullable(it.LineTotal),
			}
		}
		return s.copy(ctx, tx, pgx.Identifier{"staging", "transaction_items"},
			[]string{"item_id", "transaction_id", "product_id", "quantity",
				"unit_price", "discount_percentage", "line_total"},
			items)
	})
}

// ReplaceProduction truncate-and-reloads the production schema.
func (s *Store) ReplaceProduction(ctx context.Context, set model.ProductionSet) error {
	return s.inTx(ctx, "production", func(tx pgx.Tx) error {
		tables := []string{
			"production.transaction_items", "production.transactions",
			"production.products", "production.customers",
		}
		if err := truncate(ctx, tx, tables...); err != nil {
			return err
		}

		customers := make([][]any, len(set.Customers))
		for i, c := range set.Customers {
			customers[i] = []any{
				c.Key, c.CustomerID, c.FirstName, c.LastName, c.Email, c.Phone,
				c.RegistrationDate, c.City, c.State, c.Country, c.AgeGroup,
			}
		}
		if err := s.copy(ctx, tx, pgx.Identifier{"production", "customers"},
			[]string{"customer_key", "customer_id", "first_name", "last_name",
				"email", "phone", "registration_date", "city", "state",
				"country", "age_group"},
			customers); err != nil {
			return err
		}

		products := make([][]any, len(set.Products))
		for i, p := range set.Products {
			products[i] = []any{
				p.Key, p.ProductID, p.ProductName, p.Category, p.SubCategory,
				p.Price, p.Cost, p.Brand, p.StockQuantity, p.SupplierID,
				p.ProfitMargin, p.PriceCategory,
			}
		}
		if err := s.copy(ctx, tx, pgx.Identifier{"production", "products"},
			[]string{"product_key", "product_id", "product_name", "category",
				"sub_category", "price", "cost", "brand", "stock_quantity",
				"supplier_id", "profit_margin", "price_category"},
			products); err != nil {
			return err
		}

		txns := make([][]any, len(set.Transactions))
		for i, t := range set.Transactions {
			txns[i] = []any{
				t.Key, t.TransactionID, t.CustomerKey, t.Date, t.Time,
				t.PaymentMethod, t.ShippingAddress, t.TotalAmount,
			}
		}
		if err := s.copy(ctx, tx, pgx.Identifier{"production", "transactions"},
			[]string{"transaction_key", "transaction_id", "customer_key",
				"transaction_date", "transaction_time", "payment_method",
				"shipping_address", "total_amount"},
			txns); err != nil {
			return err
		}

		items := make([][]any, len(set.Items))
		for i, it := range set.Items {
			items[i] = []any{
				it.Key, it.ItemID, it.TransactionKey, it.ProductKey,
				it.Quantity, it.UnitPrice, it.DiscountPercentage, it.LineTotal,
			}
		}
		return s.copy(ctx, tx, pgx.Identifier{"production", "transaction_items"},
			[]string{"item_key", "item_id", "transaction_key", "product_key",
				"quantity", "unit_price", "discount_percentage", "line_total"},
			items)
	})
}

// ReplaceWarehouse truncate-and-reloads the dimensional model. Dimension
// tables are written before the fact table, preserving the builder's
// ordering invariant all the way to storage.
func (s *Store) ReplaceWarehouse(ctx context.Context, set model.WarehouseSet) error {
	return s.inTx(ctx, "warehouse", func(tx pgx.Tx) error {
		tables := []string{
			"warehouse.fact_sales", "warehouse.dim_customer",
			"warehouse.dim_product", "warehouse.dim_date",
			"warehouse.dim_payment_method",
		}
		if err := truncate(ctx, tx, tables...); err != nil {
			return err
		}

		customers := make([][]any, len(set.Customers))
		for i, c := range set.Customers {
			customers[i] = []any{
				c.Key, c.CustomerID, c.FullName, c.Email,
				c.City, c.State, c.Country, c.AgeGroup,
			}
		}
		if err := s.copy(ctx, tx, pgx.Identifier{"warehouse", "dim_customer"},
			[]string{"customer_key", "customer_id", "full_name", "email",
				"city", "state", "country", "age_group"},
			customers); err != nil {
			return err
		}

		products := make([][]any, len(set.Products))
		for i, p := range set.Products {
			products[i] = []any{
				p.Key, p.ProductID, p.ProductName, p.Category,
				p.SubCategory, p.Brand, p.Price, p.PriceCategory,
			}
		}
		if err := s.copy(ctx, tx, pgx.Identifier{"warehouse", "dim_product"},
			[]string{"product_key", "product_id", "product_name", "category",
				"sub_category", "brand", "price", "price_category"},
			products); err != nil {
			return err
		}

		dates := make([][]any, len(set.Dates))
		for i, d := range set.Dates {
			dates[i] = []any{
				d.Key, d.Date, d.Year, d.Quarter, d.Month, d.MonthName,
				d.Day, d.DayOfWeek, d.DayName, d.IsWeekend,
			}
		}
		if err := s.copy(ctx, tx, pgx.Identifier{"warehouse", "dim_date"},
			[]string{"date_key", "date", "year", "quarter", "month",
				"month_name", "day", "day_of_week", "day_name", "is_weekend"},
			dates); err != nil {
			return err
		}

		methods := make([][]any, len(set.PaymentMethods))
		for i, m := range set.PaymentMethods {
			methods[i] = []any{m.Key, m.Name}
		}
		if err := s.copy(ctx, tx, pgx.Identifier{"warehouse", "dim_payment_method"},
			[]string{"payment_method_key", "payment_method"},
			methods); err != nil {
			return err
		}

		facts := make([][]any, len(set.Facts))
		for i, f := range set.Facts {
			facts[i] = []any{
				f.Key, f.TransactionID, f.CustomerKey, f.ProductKey,
				f.DateKey, f.PaymentMethodKey, f.Quantity, f.UnitPrice,
				f.DiscountPercentage, f.ExtendedAmount,
			}
		}
		return s.copy(ctx, tx, pgx.Identifier{"warehouse", "fact_sales"},
			[]string{"sales_key", "transaction_id", "customer_key",
				"product_key", "date_key", "payment_method_key", "quantity",
				"unit_price", "discount_percentage", "extended_amount"},
			facts)
	})
}

// ReplaceAggregates truncate-and-reloads the aggregate tables.
func (s *Store) ReplaceAggregates(ctx context.Context, set model.AggregateSet) error {
	return s.inTx(ctx, "aggregates", func(tx pgx.Tx) error {
		tables := []string{
			"warehouse.agg_daily_sales", "warehouse.agg_product_performance",
			"warehouse.agg_customer_metrics",
		}
		if err := truncate(ctx, tx, tables...); err != nil {
			return err
		}

		daily := make([][]any, len(set.DailySales))
		for i, d := range set.DailySales {
			daily[i] = []any{
				d.DateKey, d.TotalRevenue, d.TotalQuantity,
				d.TransactionCount, d.AvgTransactionValue,
			}
		}
		if err := s.copy(ctx, tx, pgx.Identifier{"warehouse", "agg_daily_sales"},
			[]string{"date_key", "total_revenue", "total_quantity",
				"transaction_count", "avg_transaction_value"},
			daily); err != nil {
			return err
		}

		products := make([][]any, len(set.ProductPerformance))
		for i, p := range set.ProductPerformance {
			products[i] = []any{
				p.ProductKey, p.ProductID, p.ProductName, p.Category,
				p.TotalRevenue, p.TotalQuantity, p.OrderCount, p.RevenueRank,
			}
		}
		if err := s.copy(ctx, tx, pgx.Identifier{"warehouse", "agg_product_performance"},
			[]string{"product_key", "product_id", "product_name", "category",
				"total_revenue", "total_quantity", "order_count", "revenue_rank"},
			products); err != nil {
			return err
		}

		customers := make([][]any, len(set.CustomerMetrics))
		for i, c := range set.CustomerMetrics {
			customers[i] = []any{
				c.CustomerKey, c.CustomerID, c.TotalSpend, c.OrderCount,
				c.AvgOrderValue, c.LastOrderDate, c.DaysSinceLastOrder,
			}
		}
		return s.copy(ctx, tx, pgx.Identifier{"warehouse", "agg_customer_metrics"},
			[]string{"customer_key", "customer_id", "total_spend",
				"order_count", "avg_order_value", "last_order_date",
				"days_since_last_order"},
			customers)
	})
}

func (s *Store) inTx(ctx context.Context, stage string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s transaction: %w", stage, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s transaction: %w", stage, err)
	}

	logging.Debug().Str("stage", stage).Msg("Stage committed")
	return nil
}

func (s *Store) copy(ctx context.Context, tx pgx.Tx, table pgx.Identifier, columns []string, rows [][]any) error {
	n, err := tx.CopyFrom(ctx, table, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", table.Sanitize(), err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copy into %s: loaded %d of %d rows", table.Sanitize(), n, len(rows))
	}
	return nil
}

func truncate(ctx context.Context, tx pgx.Tx, tables ...string) error {
	for _, table := range tables {
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// nullable maps an empty staging value to SQL NULL so that the landing
// zone distinguishes absent values from empty strings the way the raw
// feed does.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
