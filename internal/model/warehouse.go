package model

import "time"

// DimCustomer is the denormalized customer dimension. Keys are the production
// surrogates, so a rebuild from the same snapshot yields identical keys.
type DimCustomer struct {
	Key        int64
	CustomerID string
	FullName   string
	Email      string
	City       string
	State      string
	Country    string
	AgeGroup   string
}

// DimProduct is the denormalized product dimension.
type DimProduct struct {
	Key           int64
	ProductID     string
	ProductName   string
	Category      string
	SubCategory   string
	Brand         string
	Price         float64
	PriceCategory string
}

// DimDate is one calendar day. Key is the date encoded as YYYYMMDD.
type DimDate struct {
	Key       int
	Date      time.Time
	Year      int
	Quarter   int
	Month     int
	MonthName string
	Day       int
	DayOfWeek int
	DayName   string
	IsWeekend bool
}

// DimPaymentMethod enumerates the distinct payment methods. Keys are
// assigned over the sorted method names so they are stable across rebuilds.
type DimPaymentMethod struct {
	Key  int64
	Name string
}

// FactSale is one transaction line item with resolved dimension keys.
type FactSale struct {
	Key                int64
	TransactionID      string
	CustomerKey        int64
	ProductKey         int64
	DateKey            int
	PaymentMethodKey   int64
	Quantity           int
	UnitPrice          float64
	DiscountPercentage float64
	ExtendedAmount     float64
}

// WarehouseSet is the dimensional snapshot: all dimensions plus the fact
// table. Builders must populate every dimension before any fact row.
type WarehouseSet struct {
	Customers      []DimCustomer
	Products       []DimProduct
	Dates          []DimDate
	PaymentMethods []DimPaymentMethod
	Facts          []FactSale
}

// DateKey encodes a date as YYYYMMDD, the dim_date surrogate.
func DateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
