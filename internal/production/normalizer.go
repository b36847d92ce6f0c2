// Package production implements the normalizer: it maps accepted staging
// rows into the 3NF production model, assigning surrogate keys and
// deduplicating on natural keys.
//
// Independent entities (customers, products) are keyed before dependent
// ones (transactions, items) so that every foreign reference can be
// resolved in a single pass. Duplicate natural keys within one load upsert
// with last-seen-wins semantics: the earlier surrogate key is kept, the
// attributes are replaced.
package production

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/datamill-io/ecomflow/internal/model"
)

// Price category boundaries, applied to the cleansed unit price.
const (
	budgetPriceLimit   = 50.0
	midRangePriceLimit = 200.0
)

// Result is the normalizer output: the production snapshot plus the
// referential violations for dependent rows whose parent never received a
// surrogate key (rejected upstream). Violations are excluded, not fatal.
type Result struct {
	Production model.ProductionSet
	Violations []model.RefViolation
}

// Normalize transforms an accepted staging snapshot into the production
// model. Input is expected to have passed the quality gate; a value that
// fails type coercion here indicates the stages were run out of order and
// is returned as an error.
func Normalize(in model.StagingSet) (*Result, error) {
	res := &Result{}

	customerKeys, err := res.normalizeCustomers(in.Customers)
	if err != nil {
		return nil, err
	}
	productKeys, err := res.normalizeProducts(in.Products)
	if err != nil {
		return nil, err
	}
	txnKeys, err := res.normalizeTransactions(in.Transactions, customerKeys)
	if err != nil {
		return nil, err
	}
	if err := res.normalizeItems(in.Items, txnKeys, productKeys); err != nil {
		return nil, err
	}

	return res, nil
}

func (r *Result) normalizeCustomers(rows []model.StagingCustomer) (map[string]int64, error) {
	keys := make(map[string]int64, len(rows))
	index := make(map[string]int, len(rows))

	for _, row := range rows {
		id := strings.TrimSpace(row.CustomerID)
		regDate, err := time.Parse("2006-01-02", strings.TrimSpace(row.RegistrationDate))
		if err != nil {
			return nil, fmt.Errorf("normalize customers: row %q: %w", id, err)
		}

		c := model.Customer{
			CustomerID:       id,
			FirstName:        titleCase(row.FirstName),
			LastName:         titleCase(row.LastName),
			Email:            strings.ToLower(strings.TrimSpace(row.Email)),
			Phone:            digitsOnly(row.Phone),
			RegistrationDate: regDate,
			City:             strings.TrimSpace(row.City),
			State:            strings.TrimSpace(row.State),
			Country:          strings.TrimSpace(row.Country),
			AgeGroup:         strings.TrimSpace(row.AgeGroup),
		}

		if i, seen := index[id]; seen {
			c.Key = r.Production.Customers[i].Key
			r.Production.Customers[i] = c
			continue
		}
		c.Key = int64(len(r.Production.Customers) + 1)
		index[id] = len(r.Production.Customers)
		keys[id] = c.Key
		r.Production.Customers = append(r.Production.Customers, c)
	}
	return keys, nil
}

func (r *Result) normalizeProducts(rows []model.StagingProduct) (map[string]int64, error) {
	keys := make(map[string]int64, len(rows))
	index := make(map[string]int, len(rows))

	for _, row := range rows {
		id := strings.TrimSpace(row.ProductID)
		price, err := strconv.ParseFloat(strings.TrimSpace(row.Price), 64)
		if err != nil {
			return nil, fmt.Errorf("normalize products: row %q: %w", id, err)
		}
		cost, err := strconv.ParseFloat(strings.TrimSpace(row.Cost), 64)
		if err != nil {
			return nil, fmt.Errorf("normalize products: row %q: %w", id, err)
		}
		stock := 0
		if s := strings.TrimSpace(row.StockQuantity); s != "" {
			stock, err = strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("normalize products: row %q: %w", id, err)
			}
		}

		price = round2(price)
		cost = round2(cost)

		p := model.Product{
			ProductID:     id,
			ProductName:   strings.TrimSpace(row.ProductName),
			Category:      strings.TrimSpace(row.Category),
			SubCategory:   strings.TrimSpace(row.SubCategory),
			Price:         price,
			Cost:          cost,
			Brand:         strings.TrimSpace(row.Brand),
			StockQuantity: stock,
			SupplierID:    strings.TrimSpace(row.SupplierID),
			ProfitMargin:  round2((price - cost) / price * 100),
			PriceCategory: priceCategory(price),
		}

		if i, seen := index[id]; seen {
			p.Key = r.Production.Products[i].Key
			r.Production.Products[i] = p
			continue
		}
		p.Key = int64(len(r.Production.Products) + 1)
		index[id] = len(r.Production.Products)
		keys[id] = p.Key
		r.Production.Products = append(r.Production.Products, p)
	}
	return keys, nil
}

func (r *Result) normalizeTransactions(rows []model.StagingTransaction, customerKeys map[string]int64) (map[string]int64, error) {
	keys := make(map[string]int64, len(rows))
	index := make(map[string]int, len(rows))

	for _, row := range rows {
		id := strings.TrimSpace(row.TransactionID)
		customerID := strings.TrimSpace(row.CustomerID)

		customerKey, ok := customerKeys[customerID]
		if !ok {
			r.Violations = append(r.Violations, model.RefViolation{
				Entity:    "transactions",
				RowID:     id,
				RefEntity: "customers",
				RefKey:    customerID,
			})
			continue
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(row.TransactionDate))
		if err != nil {
			return nil, fmt.Errorf("normalize transactions: row %q: %w", id, err)
		}
		total, err := strconv.ParseFloat(strings.TrimSpace(row.TotalAmount), 64)
		if err != nil {
			return nil, fmt.Errorf("normalize transactions: row %q: %w", id, err)
		}

		t := model.Transaction{
			TransactionID:   id,
			CustomerKey:     customerKey,
			Date:            date,
			Time:            strings.TrimSpace(row.TransactionTime),
			PaymentMethod:   strings.TrimSpace(row.PaymentMethod),
			ShippingAddress: strings.TrimSpace(row.ShippingAddress),
			TotalAmount:     round2(total),
		}

		if i, seen := index[id]; seen {
			t.Key = r.Production.Transactions[i].Key
			r.Production.Transactions[i] = t
			continue
		}
		t.Key = int64(len(r.Production.Transactions) + 1)
		index[id] = len(r.Production.Transactions)
		keys[id] = t.Key
		r.Production.Transactions = append(r.Production.Transactions, t)
	}
	return keys, nil
}

func (r *Result) normalizeItems(rows []model.StagingItem, txnKeys, productKeys map[string]int64) error {
	index := make(map[string]int, len(rows))

	for _, row := range rows {
		id := strings.TrimSpace(row.ItemID)
		txnID := strings.TrimSpace(row.TransactionID)
		productID := strings.TrimSpace(row.ProductID)

		txnKey, ok := txnKeys[txnID]
		if !ok {
			r.Violations = append(r.Violations, model.RefViolation{
				Entity:    "transaction_items",
				RowID:     id,
				RefEntity: "transactions",
				RefKey:    txnID,
			})
			continue
		}
		productKey, ok := productKeys[productID]
		if !ok {
			r.Violations = append(r.Violations, model.RefViolation{
				Entity:    "transaction_items",
				RowID:     id,
				RefEntity: "products",
				RefKey:    productID,
			})
			continue
		}

		qty, err := strconv.Atoi(strings.TrimSpace(row.Quantity))
		if err != nil {
			return fmt.Errorf("normalize transaction_items: row %q: %w", id, err)
		}
		unitPrice, err := strconv.ParseFloat(strings.TrimSpace(row.UnitPrice), 64)
		if err != nil {
			return fmt.Errorf("normalize transaction_items: row %q: %w", id, err)
		}
		discount := 0.0
		if s := strings.TrimSpace(row.DiscountPercentage); s != "" {
			discount, err = strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("normalize transaction_items: row %q: %w", id, err)
			}
		}

		unitPrice = round2(unitPrice)

		it := model.TransactionItem{
			ItemID:             id,
			TransactionKey:     txnKey,
			ProductKey:         productKey,
			Quantity:           qty,
			UnitPrice:          unitPrice,
			DiscountPercentage: discount,
			LineTotal:          round2(float64(qty) * unitPrice * (1 - discount/100)),
		}

		if i, seen := index[id]; seen {
			it.Key = r.Production.Items[i].Key
			r.Production.Items[i] = it
			continue
		}
		it.Key = int64(len(r.Production.Items) + 1)
		index[id] = len(r.Production.Items)
		r.Production.Items = append(r.Production.Items, it)
	}
	return nil
}

func priceCategory(price float64) string {
	switch {
	case price < budgetPriceLimit:
		return "Budget"
	case price < midRangePriceLimit:
		return "Mid-range"
	default:
		return "Premium"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func titleCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
