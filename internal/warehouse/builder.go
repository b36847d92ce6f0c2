// Package warehouse builds the dimensional (star) model from a production
// snapshot: all dimension tables first, then the fact table referencing
// them. Referential integrity is enforced here by construction, because
// dimensions and facts are loaded in separate steps and the storage engine
// is not relied on for deferred constraint checking.
package warehouse

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/datamill-io/ecomflow/internal/model"
)

// DateRange optionally overrides the calendar dimension bounds. When nil,
// the builder derives the range from the production transaction dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Result is the builder output. Violations hold fact input rows excluded
// because a dimension lookup failed; they are row-scoped, not fatal.
type Result struct {
	Warehouse  model.WarehouseSet
	Violations []model.RefViolation
}

// Build constructs the warehouse snapshot. Every dimension is fully
// populated before the first fact row is assembled.
func Build(prod model.ProductionSet, rng *DateRange) (*Result, error) {
	if len(prod.Transactions) == 0 && rng == nil {
		return nil, fmt.Errorf("no transactions and no configured date range; cannot build dim_date")
	}

	res := &Result{}

	customerKeys := make(map[int64]struct{}, len(prod.Customers))
	for _, c := range prod.Customers {
		res.Warehouse.Customers = append(res.Warehouse.Customers, model.DimCustomer{
			Key:        c.Key,
			CustomerID: c.CustomerID,
			FullName:   strings.TrimSpace(c.FirstName + " " + c.LastName),
			Email:      c.Email,
			City:       c.City,
			State:      c.State,
			Country:    c.Country,
			AgeGroup:   c.AgeGroup,
		})
		customerKeys[c.Key] = struct{}{}
	}

	productKeys := make(map[int64]struct{}, len(prod.Products))
	for _, p := range prod.Products {
		res.Warehouse.Products = append(res.Warehouse.Products, model.DimProduct{
			Key:           p.Key,
			ProductID:     p.ProductID,
			ProductName:   p.ProductName,
			Category:      p.Category,
			SubCategory:   p.SubCategory,
			Brand:         p.Brand,
			Price:         p.Price,
			PriceCategory: p.PriceCategory,
		})
		productKeys[p.Key] = struct{}{}
	}

	methodKeys := buildPaymentMethods(prod.Transactions, res)

	start, end := dateBounds(prod.Transactions, rng)
	res.Warehouse.Dates = BuildDateDim(start, end)
	dateKeys := make(map[int]struct{}, len(res.Warehouse.Dates))
	for _, d := range res.Warehouse.Dates {
		dateKeys[d.Key] = struct{}{}
	}

	// Dimensions are complete; assemble facts.
	txnByKey := make(map[int64]model.Transaction, len(prod.Transactions))
	for _, t := range prod.Transactions {
		txnByKey[t.Key] = t
	}

	for _, it := range prod.Items {
		txn, ok := txnByKey[it.TransactionKey]
		if !ok {
			res.violate("fact_sales", it.ItemID, "transactions", it.TransactionKey)
			continue
		}
		if _, ok := customerKeys[txn.CustomerKey]; !ok {
			res.violate("fact_sales", it.ItemID, "dim_customer", txn.CustomerKey)
			continue
		}
		if _, ok := productKeys[it.ProductKey]; !ok {
			res.violate("fact_sales", it.ItemID, "dim_product", it.ProductKey)
			continue
		}
		dateKey := model.DateKey(txn.Date)
		if _, ok := dateKeys[dateKey]; !ok {
			res.violate("fact_sales", it.ItemID, "dim_date", int64(dateKey))
			continue
		}
		methodKey, ok := methodKeys[txn.PaymentMethod]
		if !ok {
			res.Violations = append(res.Violations, model.RefViolation{
				Entity:    "fact_sales",
				RowID:     it.ItemID,
				RefEntity: "dim_payment_method",
				RefKey:    txn.PaymentMethod,
			})
			continue
		}

		res.Warehouse.Facts = append(res.Warehouse.Facts, model.FactSale{
			Key:                int64(len(res.Warehouse.Facts) + 1),
			TransactionID:      txn.TransactionID,
			CustomerKey:        txn.CustomerKey,
			ProductKey:         it.ProductKey,
			DateKey:            dateKey,
			PaymentMethodKey:   methodKey,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			DiscountPercentage: it.DiscountPercentage,
			ExtendedAmount:     it.LineTotal,
		})
	}

	return res, nil
}

func buildPaymentMethods(txns []model.Transaction, res *Result) map[string]int64 {
	distinct := make(map[string]struct{})
	for _, t := range txns {
		if t.PaymentMethod != "" {
			distinct[t.PaymentMethod] = struct{}{}
		}
	}
	names := make([]string, 0, len(distinct))
	for name := range distinct {
		names = append(names, name)
	}
	sort.Strings(names)

	keys := make(map[string]int64, len(names))
	for i, name := range names {
		key := int64(i + 1)
		keys[name] = key
		res.Warehouse.PaymentMethods = append(res.Warehouse.PaymentMethods, model.DimPaymentMethod{
			Key:  key,
			Name: name,
		})
	}
	return keys
}

func dateBounds(txns []model.Transaction, rng *DateRange) (time.Time, time.Time) {
	if rng != nil {
		return rng.Start, rng.End
	}
	start, end := txns[0].Date, txns[0].Date
	for _, t := range txns[1:] {
		if t.Date.Before(start) {
			start = t.Date
		}
		if t.Date.After(end) {
			end = t.Date
		}
	}
	return start, end
}

func (r *Result) violate(entity, rowID, refEntity string, refKey int64) {
	r.Violations = append(r.Violations, model.RefViolation{
		Entity:    entity,
		RowID:     rowID,
		RefEntity: refEntity,
		RefKey:    fmt.Sprintf("%d", refKey),
	})
}
