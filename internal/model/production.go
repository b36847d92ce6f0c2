package model

import "time"

// Customer is a validated, normalized customer with a surrogate key.
type Customer struct {
	Key              int64
	CustomerID       string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	RegistrationDate time.Time
	City             string
	State            string
	Country          string
	AgeGroup         string
}

// Product is a validated, normalized product with derived pricing attributes.
type Product struct {
	Key           int64
	ProductID     string
	ProductName   string
	Category      string
	SubCategory   string
	Price         float64
	Cost          float64
	Brand         string
	StockQuantity int
	SupplierID    string
	ProfitMargin  float64
	PriceCategory string
}

// Transaction is a normalized order header referencing a customer surrogate.
type Transaction struct {
	Key             int64
	TransactionID   string
	CustomerKey     int64
	Date            time.Time
	Time            string
	PaymentMethod   string
	ShippingAddress string
	TotalAmount     float64
}

// TransactionItem is a normalized line item referencing transaction and
// product surrogates. LineTotal is recomputed during normalization, never
// trusted from the source.
type TransactionItem struct {
	Key                int64
	ItemID             string
	TransactionKey     int64
	ProductKey         int64
	Quantity           int
	UnitPrice          float64
	DiscountPercentage float64
	LineTotal          float64
}

// ProductionSet is the normalized production snapshot for one pipeline run.
type ProductionSet struct {
	Customers    []Customer
	Products     []Product
	Transactions []Transaction
	Items        []TransactionItem
}
