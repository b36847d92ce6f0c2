// Package quality implements the data-quality gate between the staging and
// production stages. The gate partitions each staged entity into accepted
// and rejected rows; a check failure only excludes the offending row, it
// never aborts the run. A structurally empty entity set is fatal.
package quality

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/datamill-io/ecomflow/internal/model"
)

// DateLayout is the expected layout for staged date columns.
const DateLayout = "2006-01-02"

// Result holds the gate's partition of a staging snapshot plus its report.
type Result struct {
	Accepted model.StagingSet
	Rejected []model.RowError
	Report   *Report
}

// Gate validates a staging snapshot and partitions it into accepted and
// rejected rows. Entities are checked in dependency order so that
// referential checks on transactions and items run against the accepted
// parent sets, not the raw ones.
func Gate(in model.StagingSet) (*Result, error) {
	if len(in.Customers) == 0 {
		return nil, fmt.Errorf("staging.customers is empty")
	}
	if len(in.Products) == 0 {
		return nil, fmt.Errorf("staging.products is empty")
	}
	if len(in.Transactions) == 0 {
		return nil, fmt.Errorf("staging.transactions is empty")
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("staging.transaction_items is empty")
	}

	res := &Result{Report: newReport()}

	customerIDs := make(map[string]struct{}, len(in.Customers))
	for _, c := range in.Customers {
		if reason, ok := checkCustomer(c); !ok {
			res.rejectRow("customers", c.CustomerID, reason)
			continue
		}
		res.Accepted.Customers = append(res.Accepted.Customers, c)
		res.Report.accept("customers")
		customerIDs[strings.TrimSpace(c.CustomerID)] = struct{}{}
	}

	productIDs := make(map[string]struct{}, len(in.Products))
	for _, p := range in.Products {
		if reason, ok := checkProduct(p); !ok {
			res.rejectRow("products", p.ProductID, reason)
			continue
		}
		res.Accepted.Products = append(res.Accepted.Products, p)
		res.Report.accept("products")
		productIDs[strings.TrimSpace(p.ProductID)] = struct{}{}
	}

	txnIDs := make(map[string]struct{}, len(in.Transactions))
	for _, t := range in.Transactions {
		reason, ok := checkTransaction(t)
		if ok {
			if _, found := customerIDs[strings.TrimSpace(t.CustomerID)]; !found {
				reason, ok = model.ReasonMissingParent, false
			}
		}
		if !ok {
			res.rejectRow("transactions", t.TransactionID, reason)
			continue
		}
		res.Accepted.Transactions = append(res.Accepted.Transactions, t)
		res.Report.accept("transactions")
		txnIDs[strings.TrimSpace(t.TransactionID)] = struct{}{}
	}

	for _, it := range in.Items {
		reason, ok := checkItem(it)
		if ok {
			if _, found := txnIDs[strings.TrimSpace(it.TransactionID)]; !found {
				reason, ok = model.ReasonMissingParent, false
			}
		}
		if ok {
			if _, found := productIDs[strings.TrimSpace(it.ProductID)]; !found {
				reason, ok = model.ReasonMissingParent, false
			}
		}
		if !ok {
			res.rejectRow("transaction_items", it.ItemID, reason)
			continue
		}
		res.Accepted.Items = append(res.Accepted.Items, it)
		res.Report.accept("transaction_items")
	}

	return res, nil
}

func (r *Result) rejectRow(entity, rowID, reason string) {
	r.Rejected = append(r.Rejected, model.RowError{
		Entity: entity,
		RowID:  rowID,
		Reason: reason,
	})
	r.Report.reject(entity, rowID, reason)
}

func checkCustomer(c model.StagingCustomer) (string, bool) {
	if isBlank(c.CustomerID) || isBlank(c.Email) ||
		isBlank(c.FirstName) || isBlank(c.LastName) ||
		isBlank(c.RegistrationDate) {
		return model.ReasonNullRequiredField, false
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(c.RegistrationDate)); err != nil {
		return model.ReasonTypeCoercionFailed, false
	}
	return "", true
}

func checkProduct(p model.StagingProduct) (string, bool) {
	if isBlank(p.ProductID) || isBlank(p.ProductName) ||
		isBlank(p.Price) || isBlank(p.Cost) {
		return model.ReasonNullRequiredField, false
	}
	price, err := parseFloat(p.Price)
	if err != nil {
		return model.ReasonTypeCoercionFailed, false
	}
	cost, err := parseFloat(p.Cost)
	if err != nil {
		return model.ReasonTypeCoercionFailed, false
	}
	if price <= 0 || cost < 0 {
		return model.ReasonNegativeValue, false
	}
	if !isBlank(p.StockQuantity) {
		qty, err := parseInt(p.StockQuantity)
		if err != nil {
			return model.ReasonTypeCoercionFailed, false
		}
		if qty < 0 {
			return model.ReasonNegativeValue, false
		}
	}
	return "", true
}

func checkTransaction(t model.StagingTransaction) (string, bool) {
	if isBlank(t.TransactionID) || isBlank(t.CustomerID) ||
		isBlank(t.TransactionDate) || isBlank(t.PaymentMethod) ||
		isBlank(t.TotalAmount) {
		return model.ReasonNullRequiredField, false
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(t.TransactionDate)); err != nil {
		return model.ReasonTypeCoercionFailed, false
	}
	amount, err := parseFloat(t.TotalAmount)
	if err != nil {
		return model.ReasonTypeCoercionFailed, false
	}
	if amount <= 0 {
		return model.ReasonNegativeValue, false
	}
	return "", true
}

func checkItem(it model.StagingItem) (string, bool) {
	if isBlank(it.ItemID) || isBlank(it.TransactionID) ||
		isBlank(it.ProductID) || isBlank(it.Quantity) ||
		isBlank(it.UnitPrice) {
		return model.ReasonNullRequiredField, false
	}
	qty, err := parseInt(it.Quantity)
	if err != nil {
		return model.ReasonTypeCoercionFailed, false
	}
	price, err := parseFloat(it.UnitPrice)
	if err != nil {
		return model.ReasonTypeCoercionFailed, false
	}
	if qty <= 0 || price < 0 {
		return model.ReasonNegativeValue, false
	}
	if !isBlank(it.DiscountPercentage) {
		disc, err := parseFloat(it.DiscountPercentage)
		if err != nil {
			return model.ReasonTypeCoercionFailed, false
		}
		if disc < 0 || disc > 100 {
			return model.ReasonNegativeValue, false
		}
	}
	return "", true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
