// Package model defines the typed datasets passed between pipeline stages.
//
// Staging rows are deliberately loosely typed: every data column is a string
// so that malformed input survives verbatim into the landing zone. Typing and
// validation happen in the quality gate and normalizer, never on ingest.
package model

// StagingCustomer mirrors one row of the raw customers feed.
type StagingCustomer struct {
	CustomerID       string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	RegistrationDate string
	City             string
	State            string
	Country          string
	AgeGroup         string
}

// StagingProduct mirrors one row of the raw products feed.
type StagingProduct struct {
	ProductID     string
	ProductName   string
	Category      string
	SubCategory   string
	Price         string
	Cost          string
	Brand         string
	StockQuantity string
	SupplierID    string
}

// StagingTransaction mirrors one row of the raw transactions feed.
type StagingTransaction struct {
	TransactionID   string
	CustomerID      string
	TransactionDate string
	TransactionTime string
	PaymentMethod   string
	ShippingAddress string
	TotalAmount     string
}

// StagingItem mirrors one row of the raw transaction_items feed.
type StagingItem struct {
	ItemID             string
	TransactionID      string
	ProductID          string
	Quantity           string
	UnitPrice          string
	DiscountPercentage string
	LineTotal          string
}

// StagingSet is the full staging snapshot for one pipeline run.
type StagingSet struct {
	Customers    []StagingCustomer
	Products     []StagingProduct
	Transactions []StagingTransaction
	Items        []StagingItem
}
