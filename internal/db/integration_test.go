//go:build integration

//-------------------------------------------------------------------------
//
// ecomflow - e-commerce warehouse ETL pipeline
//
// Copyright (c) 2025 - 2026, Datamill Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"testing"
	"time"

	"github.com/datamill-io/ecomflow/internal/model"
	"github.com/datamill-io/ecomflow/internal/schema"
	"github.com/datamill-io/ecomflow/internal/testutil"
)

func setupTestDB(t *testing.T) (context.Context, *Store, func(table string) int) {
	t.Helper()

	baseConn := testutil.SkipIfNoPostgres(t)
	testConn := testutil.CreateTestDB(t, baseConn)
	dbName := testutil.GetDBNameFromConnStr(testConn)

	pool := testutil.ConnectTestDB(t, testConn)
	t.Cleanup(func() {
		pool.Close()
		testutil.DropTestDB(t, baseConn, dbName)
	})

	ctx := context.Background()
	if err := schema.Create(ctx, pool); err != nil {
		t.Fatalf("Failed to create schemas: %v", err)
	}

	count := func(table string) int {
		var n int
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			t.Fatalf("Failed to count %s: %v", table, err)
		}
		return n
	}

	return ctx, NewStore(pool), count
}

func TestReplaceStagingRoundTrip(t *testing.T) {
	ctx, store, count := setupTestDB(t)

	set := model.StagingSet{
		Customers: []model.StagingCustomer{
			{CustomerID: "CUST0001", FirstName: "John", LastName: "Smith",
				Email: "john@example.com", RegistrationDate: "2022-03-14"},
			{FirstName: "Missing", LastName: "ID"},
		},
		Products: []model.StagingProduct{
			{ProductID: "PROD0001", ProductName: "Widget", Price: "19.99", Cost: "12.50"},
		},
		Transactions: []model.StagingTransaction{
			{TransactionID: "TXN000001", CustomerID: "CUST0001",
				TransactionDate: "2023-06-01", PaymentMethod: "UPI", TotalAmount: "19.99"},
		},
		Items: []model.StagingItem{
			{ItemID: "ITEM000001", TransactionID: "TXN000001",
				ProductID: "PROD0001", Quantity: "1", UnitPrice: "19.99"},
		},
	}

	if err := store.ReplaceStaging(ctx, set); err != nil {
		t.Fatalf("ReplaceStaging failed: %v", err)
	}

	if got := count("staging.customers"); got != 2 {
		t.Errorf("Expected 2 staged customers, got %d", got)
	}
	if got := count("staging.customers WHERE customer_id IS NULL"); got != 1 {
		t.Errorf("Expected empty customer_id stored as NULL, got %d NULL rows", got)
	}

	// A second load supersedes the first entirely.
	set.Customers = set.Customers[:1]
	if err := store.ReplaceStaging(ctx, set); err != nil {
		t.Fatalf("ReplaceStaging reload failed: %v", err)
	}
	if got := count("staging.customers"); got != 1 {
		t.Errorf("Expected truncate-and-reload to leave 1 customer, got %d", got)
	}
}

func TestReplaceProductionAndWarehouse(t *testing.T) {
	ctx, store, count := setupTestDB(t)

	prod := model.ProductionSet{
		Customers: []model.Customer{
			{Key: 1, CustomerID: "CUST0001", FirstName: "John", LastName: "Smith",
				Email:            "john@example.com",
				RegistrationDate: time.Date(2022, 3, 14, 0, 0, 0, 0, time.UTC)},
		},
		Products: []model.Product{
			{Key: 1, ProductID: "PROD0001", ProductName: "Widget", Price: 19.99,
				Cost: 12.50, ProfitMargin: 37.47, PriceCategory: "Budget"},
		},
		Transactions: []model.Transaction{
			{Key: 1, TransactionID: "TXN000001", CustomerKey: 1,
				Date:          time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
				PaymentMethod: "UPI", TotalAmount: 19.99},
		},
		Items: []model.TransactionItem{
			{Key: 1, ItemID: "ITEM000001", TransactionKey: 1, ProductKey: 1,
				Quantity: 1, UnitPrice: 19.99, LineTotal: 19.99},
		},
	}

	if err := store.ReplaceProduction(ctx, prod); err != nil {
		t.Fatalf("ReplaceProduction failed: %v", err)
	}
	if got := count("production.transaction_items"); got != 1 {
		t.Errorf("Expected 1 production item, got %d", got)
	}

	wh := model.WarehouseSet{
		Customers: []model.DimCustomer{
			{Key: 1, CustomerID: "CUST0001", FullName: "John Smith",
				Email: "john@example.com"},
		},
		Products: []model.DimProduct{
			{Key: 1, ProductID: "PROD0001", ProductName: "Widget",
				Price: 19.99, PriceCategory: "Budget"},
		},
		Dates: []model.DimDate{
			{Key: 20230601, Date: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
				Year: 2023, Quarter: 2, Month: 6, MonthName: "June", Day: 1,
				DayOfWeek: 4, DayName: "Thursday"},
		},
		PaymentMethods: []model.DimPaymentMethod{
			{Key: 1, Name: "UPI"},
		},
		Facts: []model.FactSale{
			{Key: 1, TransactionID: "TXN000001", CustomerKey: 1, ProductKey: 1,
				DateKey: 20230601, PaymentMethodKey: 1, Quantity: 1,
				UnitPrice: 19.99, ExtendedAmount: 19.99},
		},
	}

	if err := store.ReplaceWarehouse(ctx, wh); err != nil {
		t.Fatalf("ReplaceWarehouse failed: %v", err)
	}
	if got := count("warehouse.fact_sales"); got != 1 {
		t.Errorf("Expected 1 fact row, got %d", got)
	}

	aggs := model.AggregateSet{
		DailySales: []model.DailySales{
			{DateKey: 20230601, TotalRevenue: 19.99, TotalQuantity: 1,
				TransactionCount: 1, AvgTransactionValue: 19.99},
		},
		ProductPerformance: []model.ProductPerformance{
			{ProductKey: 1, ProductID: "PROD0001", ProductName: "Widget",
				TotalRevenue: 19.99, TotalQuantity: 1, OrderCount: 1, RevenueRank: 1},
		},
		CustomerMetrics: []model.CustomerMetrics{
			{CustomerKey: 1, CustomerID: "CUST0001", TotalSpend: 19.99,
				OrderCount: 1, AvgOrderValue: 19.99,
				LastOrderDate:      time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
				DaysSinceLastOrder: 9},
		},
	}

	if err := store.ReplaceAggregates(ctx, aggs); err != nil {
		t.Fatalf("ReplaceAggregates failed: %v", err)
	}
	if got := count("warehouse.agg_daily_sales"); got != 1 {
		t.Errorf("Expected 1 daily sales row, got %d", got)
	}
}

func TestMetadataLifecycle(t *testing.T) {
	baseConn := testutil.SkipIfNoPostgres(t)
	testConn := testutil.CreateTestDB(t, baseConn)
	dbName := testutil.GetDBNameFromConnStr(testConn)

	pool := testutil.ConnectTestDB(t, testConn)
	t.Cleanup(func() {
		pool.Close()
		testutil.DropTestDB(t, baseConn, dbName)
	})

	ctx := context.Background()

	exists, err := MetadataExists(ctx, pool)
	if err != nil {
		t.Fatalf("MetadataExists failed: %v", err)
	}
	if exists {
		t.Error("Expected no metadata table before init")
	}

	if err := SaveInitMetadata(ctx, pool, schema.Version); err != nil {
		t.Fatalf("SaveInitMetadata failed: %v", err)
	}

	got, err := GetMetadataValue(ctx, pool, "schema_version")
	if err != nil {
		t.Fatalf("GetMetadataValue failed: %v", err)
	}
	if got != schema.Version {
		t.Errorf("Expected schema version %s, got %s", schema.Version, got)
	}

	if err := SaveRunMetadata(ctx, pool, time.Now(), []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("SaveRunMetadata failed: %v", err)
	}
	report, err := GetMetadataValue(ctx, pool, "last_run_report")
	if err != nil {
		t.Fatalf("GetMetadataValue failed: %v", err)
	}
	if report != `{"ok":true}` {
		t.Errorf("Unexpected stored report %q", report)
	}

	if err := DropMetadata(ctx, pool); err != nil {
		t.Fatalf("DropMetadata failed: %v", err)
	}
	exists, err = MetadataExists(ctx, pool)
	if err != nil {
		t.Fatalf("MetadataExists failed: %v", err)
	}
	if exists {
		t.Error("Expected metadata table dropped")
	}
}
