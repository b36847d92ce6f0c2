// Package staging loads raw CSV feeds into the staging snapshot. The
// loader is an audit-preserving landing zone: values are carried verbatim,
// including malformed ones, and each run supersedes the previous load
// (truncate-and-reload at persist time).
//
// Structural problems are fatal here: a missing file or a missing required
// column means the raw source contract is broken and downstream stages
// must not start.
package staging

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/datamill-io/ecomflow/internal/model"
)

// Raw source file names, matching the generator's output.
const (
	CustomersFile = "customers.csv"
	ProductsFile  = "products.csv"
	TxnsFile      = "transactions.csv"
	ItemsFile     = "transaction_items.csv"
)

var (
	customerColumns = []string{
		"customer_id", "first_name", "last_name", "email", "phone",
		"registration_date", "city", "state", "country", "age_group",
	}
	productColumns = []string{
		"product_id", "product_name", "category", "sub_category",
		"price", "cost", "brand", "stock_quantity", "supplier_id",
	}
	txnColumns = []string{
		"transaction_id", "customer_id", "transaction_date",
		"transaction_time", "payment_method", "shipping_address", "total_amount",
	}
	itemColumns = []string{
		"item_id", "transaction_id", "product_id", "quantity",
		"unit_price", "discount_percentage", "line_total",
	}
)

// LoadDir reads all four raw feeds from dir into a staging snapshot.
func LoadDir(dir string) (model.StagingSet, error) {
	var set model.StagingSet

	customers, err := readTable(filepath.Join(dir, CustomersFile), customerColumns)
	if err != nil {
		return set, err
	}
	for _, rec := range customers {
		set.Customers = append(set.Customers, model.StagingCustomer{
			CustomerID:       rec["customer_id"],
			FirstName:        rec["first_name"],
			LastName:         rec["last_name"],
			Email:            rec["email"],
			Phone:            rec["phone"],
			RegistrationDate: rec["registration_date"],
			City:             rec["city"],
			State:            rec["state"],
			Country:          rec["country"],
			AgeGroup:         rec["age_group"],
		})
	}

	products, err := readTable(filepath.Join(dir, ProductsFile), productColumns)
	if err != nil {
		return set, err
	}
	for _, rec := range products {
		set.Products = append(set.Products, model.StagingProduct{
			ProductID:     rec["product_id"],
			ProductName:   rec["product_name"],
			Category:      rec["category"],
			SubCategory:   rec["sub_category"],
			Price:         rec["price"],
			Cost:          rec["cost"],
			Brand:         rec["brand"],
			StockQuantity: rec["stock_quantity"],
			SupplierID:    rec["supplier_id"],
		})
	}

	txns, err := readTable(filepath.Join(dir, TxnsFile), txnColumns)
	if err != nil {
		return set, err
	}
	for _, rec := range txns {
		set.Transactions = append(set.Transactions, model.StagingTransaction{
			TransactionID:   rec["transaction_id"],
			CustomerID:      rec["customer_id"],
			TransactionDate: rec["transaction_date"],
			TransactionTime: rec["transaction_time"],
			PaymentMethod:   rec["payment_method"],
			ShippingAddress: rec["shipping_address"],
			TotalAmount:     rec["total_amount"],
		})
	}

	items, err := readTable(filepath.Join(dir, ItemsFile), itemColumns)
	if err != nil {
		return set, err
	}
	for _, rec := range items {
		set.Items = append(set.Items, model.StagingItem{
			ItemID:             rec["item_id"],
			TransactionID:      rec["transaction_id"],
			ProductID:          rec["product_id"],
			Quantity:           rec["quantity"],
			UnitPrice:          rec["unit_price"],
			DiscountPercentage: rec["discount_percentage"],
			LineTotal:          rec["line_total"],
		})
	}

	return set, nil
}

// readTable reads one CSV file into header-keyed records, verifying that
// every required column is present. Extra columns are carried through
// untouched by the header map and simply ignored by the caller.
func readTable(path string, required []string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raw feed: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", filepath.Base(path), col)
		}
	}

	var records []map[string]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		rec := make(map[string]string, len(required))
		for name, i := range index {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
