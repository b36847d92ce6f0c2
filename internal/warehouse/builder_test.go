package warehouse

import (
	"testing"
	"time"

	"github.com/datamill-io/ecomflow/internal/model"
)

func productionFixture() model.ProductionSet {
	return model.ProductionSet{
		Customers: []model.Customer{
			{Key: 1, CustomerID: "CUST0001", FirstName: "John", LastName: "Smith",
				Email: "john@example.com", City: "Austin", State: "TX", Country: "USA"},
			{Key: 2, CustomerID: "CUST0002", FirstName: "Mary", LastName: "Jones",
				Email: "mary@example.com"},
		},
		Products: []model.Product{
			{Key: 1, ProductID: "PROD0001", ProductName: "Widget",
				Price: 100.0, PriceCategory: "Mid-range"},
			{Key: 2, ProductID: "PROD0002", ProductName: "Gadget",
				Price: 250.0, PriceCategory: "Premium"},
		},
		Transactions: []model.Transaction{
			{Key: 1, TransactionID: "TXN000001", CustomerKey: 1,
				Date:          time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
				PaymentMethod: "UPI", TotalAmount: 200.0},
			{Key: 2, TransactionID: "TXN000002", CustomerKey: 2,
				Date:          time.Date(2023, 6, 3, 0, 0, 0, 0, time.UTC),
				PaymentMethod: "Credit Card", TotalAmount: 250.0},
		},
		Items: []model.TransactionItem{
			{Key: 1, ItemID: "ITEM000001", TransactionKey: 1, ProductKey: 1,
				Quantity: 2, UnitPrice: 100.0, LineTotal: 200.0},
			{Key: 2, ItemID: "ITEM000002", TransactionKey: 2, ProductKey: 2,
				Quantity: 1, UnitPrice: 250.0, LineTotal: 250.0},
		},
	}
}

func TestBuildDimensionsBeforeFacts(t *testing.T) {
	res, err := Build(productionFixture(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(res.Violations) != 0 {
		t.Fatalf("Expected no violations, got %v", res.Violations)
	}
	if len(res.Warehouse.Facts) != 2 {
		t.Fatalf("Expected 2 fact rows, got %d", len(res.Warehouse.Facts))
	}

	// Every fact foreign key must resolve to a dimension row.
	customers := make(map[int64]struct{})
	for _, d := range res.Warehouse.Customers {
		customers[d.Key] = struct{}{}
	}
	products := make(map[int64]struct{})
	for _, d := range res.Warehouse.Products {
		products[d.Key] = struct{}{}
	}
	dates := make(map[int]struct{})
	for _, d := range res.Warehouse.Dates {
		dates[d.Key] = struct{}{}
	}
	methods := make(map[int64]struct{})
	for _, d := range res.Warehouse.PaymentMethods {
		methods[d.Key] = struct{}{}
	}

	for _, f := range res.Warehouse.Facts {
		if _, ok := customers[f.CustomerKey]; !ok {
			t.Errorf("Fact %s: unresolved customer key %d", f.TransactionID, f.CustomerKey)
		}
		if _, ok := products[f.ProductKey]; !ok {
			t.Errorf("Fact %s: unresolved product key %d", f.TransactionID, f.ProductKey)
		}
		if _, ok := dates[f.DateKey]; !ok {
			t.Errorf("Fact %s: unresolved date key %d", f.TransactionID, f.DateKey)
		}
		if _, ok := methods[f.PaymentMethodKey]; !ok {
			t.Errorf("Fact %s: unresolved payment method key %d", f.TransactionID, f.PaymentMethodKey)
		}
	}
}

func TestBuildFullNameDenormalization(t *testing.T) {
	res, err := Build(productionFixture(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := res.Warehouse.Customers[0].FullName; got != "John Smith" {
		t.Errorf("Expected full name \"John Smith\", got %q", got)
	}
}

func TestBuildPaymentMethodKeysStable(t *testing.T) {
	// Keys are assigned over the sorted method names, so they must not
	// depend on transaction order.
	prod := productionFixture()
	reversed := productionFixture()
	reversed.Transactions[0], reversed.Transactions[1] =
		reversed.Transactions[1], reversed.Transactions[0]

	a, err := Build(prod, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	b, err := Build(reversed, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(a.Warehouse.PaymentMethods) != 2 {
		t.Fatalf("Expected 2 payment methods, got %d", len(a.Warehouse.PaymentMethods))
	}
	for i := range a.Warehouse.PaymentMethods {
		if a.Warehouse.PaymentMethods[i] != b.Warehouse.PaymentMethods[i] {
			t.Errorf("Payment method keys differ across input orderings: %+v vs %+v",
				a.Warehouse.PaymentMethods[i], b.Warehouse.PaymentMethods[i])
		}
	}
	if a.Warehouse.PaymentMethods[0].Name != "Credit Card" {
		t.Errorf("Expected sorted first method Credit Card, got %q",
			a.Warehouse.PaymentMethods[0].Name)
	}
}

func TestBuildOrphanedFactRow(t *testing.T) {
	// An item whose transaction is missing becomes a violation, never a
	// fact row, and never aborts the build.
	prod := productionFixture()
	prod.Items = append(prod.Items, model.TransactionItem{
		Key: 3, ItemID: "ITEM000003", TransactionKey: 99, ProductKey: 1,
		Quantity: 1, UnitPrice: 100.0, LineTotal: 100.0,
	})

	res, err := Build(prod, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(res.Warehouse.Facts) != 2 {
		t.Errorf("Expected orphan excluded from facts, got %d rows", len(res.Warehouse.Facts))
	}
	if len(res.Violations) != 1 {
		t.Fatalf("Expected 1 violation, got %v", res.Violations)
	}
	v := res.Violations[0]
	if v.Entity != "fact_sales" || v.RowID != "ITEM000003" || v.RefEntity != "transactions" {
		t.Errorf("Unexpected violation %+v", v)
	}
}

func TestBuildOrphanedCustomerReference(t *testing.T) {
	// A transaction carrying a customer surrogate absent from the customer
	// set: its fact rows are excluded with a logged violation, the run is
	// not aborted.
	prod := productionFixture()
	prod.Customers = prod.Customers[:1]

	res, err := Build(prod, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(res.Warehouse.Facts) != 1 {
		t.Errorf("Expected 1 fact row after exclusion, got %d", len(res.Warehouse.Facts))
	}
	if len(res.Violations) != 1 {
		t.Fatalf("Expected 1 violation, got %v", res.Violations)
	}
	if res.Violations[0].RefEntity != "dim_customer" || res.Violations[0].RefKey != "2" {
		t.Errorf("Unexpected violation %+v", res.Violations[0])
	}
}

func TestBuildDateRangeOverride(t *testing.T) {
	rng := &DateRange{
		Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	res, err := Build(productionFixture(), rng)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(res.Warehouse.Dates) != 31 {
		t.Errorf("Expected 31 calendar days, got %d", len(res.Warehouse.Dates))
	}
	// June transactions fall outside the configured range and cannot
	// resolve a date key.
	if len(res.Warehouse.Facts) != 0 {
		t.Errorf("Expected no facts outside the date range, got %d", len(res.Warehouse.Facts))
	}
	if len(res.Violations) != 2 {
		t.Errorf("Expected 2 dim_date violations, got %v", res.Violations)
	}
}

func TestBuildNoTransactionsNoRange(t *testing.T) {
	prod := productionFixture()
	prod.Transactions = nil
	if _, err := Build(prod, nil); err == nil {
		t.Error("Expected error when no transactions and no date range, got nil")
	}
}

func TestBuildDateDim(t *testing.T) {
	dates := BuildDateDim(
		time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	)

	if len(dates) != 4 {
		t.Fatalf("Expected 4 days, got %d", len(dates))
	}

	first := dates[0]
	if first.Key != 20231230 {
		t.Errorf("Expected key 20231230, got %d", first.Key)
	}
	if first.Quarter != 4 || first.MonthName != "December" {
		t.Errorf("Unexpected attributes %+v", first)
	}
	if !first.IsWeekend || first.DayName != "Saturday" {
		t.Errorf("2023-12-30 is a Saturday, got %+v", first)
	}

	newYear := dates[2]
	if newYear.Key != 20240101 || newYear.Quarter != 1 || newYear.IsWeekend {
		t.Errorf("Unexpected new year attributes %+v", newYear)
	}
}
