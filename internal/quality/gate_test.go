package quality

import (
	"fmt"
	"testing"

	"github.com/datamill-io/ecomflow/internal/model"
)

func validStagingSet() model.StagingSet {
	return model.StagingSet{
		Customers: []model.StagingCustomer{
			{CustomerID: "CUST0001", FirstName: "Ada", LastName: "Lovelace",
				Email: "ada@example.com", RegistrationDate: "2022-03-14"},
		},
		Products: []model.StagingProduct{
			{ProductID: "PROD0001", ProductName: "Widget", Price: "19.99", Cost: "12.50"},
		},
		Transactions: []model.StagingTransaction{
			{TransactionID: "TXN000001", CustomerID: "CUST0001",
				TransactionDate: "2023-06-01", PaymentMethod: "Credit Card",
				TotalAmount: "19.99"},
		},
		Items: []model.StagingItem{
			{ItemID: "ITEM000001", TransactionID: "TXN000001",
				ProductID: "PROD0001", Quantity: "1", UnitPrice: "19.99"},
		},
	}
}

func TestGateAcceptsValidRows(t *testing.T) {
	res, err := Gate(validStagingSet())
	if err != nil {
		t.Fatalf("Gate failed: %v", err)
	}
	if len(res.Rejected) != 0 {
		t.Fatalf("Expected no rejections, got %d: %v", len(res.Rejected), res.Rejected)
	}
	if len(res.Accepted.Customers) != 1 || len(res.Accepted.Products) != 1 ||
		len(res.Accepted.Transactions) != 1 || len(res.Accepted.Items) != 1 {
		t.Errorf("Expected all rows accepted, got %+v", res.Accepted)
	}
}

func TestGateNullCustomerID(t *testing.T) {
	// 100 customers, 5 with a null customer_id: accepted=95, rejected=5
	// with reason null_required_field.
	set := validStagingSet()
	set.Customers = nil
	for i := 1; i <= 100; i++ {
		c := model.StagingCustomer{
			CustomerID:       fmt.Sprintf("CUST%04d", i),
			FirstName:        "First",
			LastName:         "Last",
			Email:            fmt.Sprintf("c%d@example.com", i),
			RegistrationDate: "2022-01-01",
		}
		if i <= 5 {
			c.CustomerID = ""
		}
		set.Customers = append(set.Customers, c)
	}

	res, err := Gate(set)
	if err != nil {
		t.Fatalf("Gate failed: %v", err)
	}

	er := res.Report.Entities["customers"]
	if er.Accepted != 95 {
		t.Errorf("Expected 95 accepted customers, got %d", er.Accepted)
	}
	if er.Rejected != 5 {
		t.Errorf("Expected 5 rejected customers, got %d", er.Rejected)
	}
	if er.Reasons[model.ReasonNullRequiredField] != 5 {
		t.Errorf("Expected 5 null_required_field rejections, got %d",
			er.Reasons[model.ReasonNullRequiredField])
	}
}

func TestGateRejectionReasons(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*model.StagingSet)
		entity     string
		wantReason string
	}{
		{
			name: "customer missing email",
			mutate: func(s *model.StagingSet) {
				s.Customers[0].Email = ""
			},
			entity:     "customers",
			wantReason: model.ReasonNullRequiredField,
		},
		{
			name: "customer bad registration date",
			mutate: func(s *model.StagingSet) {
				s.Customers[0].RegistrationDate = "14/03/2022"
			},
			entity:     "customers",
			wantReason: model.ReasonTypeCoercionFailed,
		},
		{
			name: "product unparseable price",
			mutate: func(s *model.StagingSet) {
				s.Products[0].Price = "nineteen"
			},
			entity:     "products",
			wantReason: model.ReasonTypeCoercionFailed,
		},
		{
			name: "product negative price",
			mutate: func(s *model.StagingSet) {
				s.Products[0].Price = "-5.00"
			},
			entity:     "products",
			wantReason: model.ReasonNegativeValue,
		},
		{
			name: "transaction zero total",
			mutate: func(s *model.StagingSet) {
				s.Transactions[0].TotalAmount = "0"
			},
			entity:     "transactions",
			wantReason: model.ReasonNegativeValue,
		},
		{
			name: "item zero quantity",
			mutate: func(s *model.StagingSet) {
				s.Items[0].Quantity = "0"
			},
			entity:     "transaction_items",
			wantReason: model.ReasonNegativeValue,
		},
		{
			name: "item bad discount",
			mutate: func(s *model.StagingSet) {
				s.Items[0].DiscountPercentage = "lots"
			},
			entity:     "transaction_items",
			wantReason: model.ReasonTypeCoercionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := validStagingSet()
			tt.mutate(&set)

			res, err := Gate(set)
			if err != nil {
				t.Fatalf("Gate failed: %v", err)
			}

			er := res.Report.Entities[tt.entity]
			if er == nil || er.Rejected != 1 {
				t.Fatalf("Expected 1 rejection for %s, report: %+v", tt.entity, res.Report)
			}
			if er.Reasons[tt.wantReason] != 1 {
				t.Errorf("Expected reason %q, got %v", tt.wantReason, er.Reasons)
			}
		})
	}
}

func TestGateReferentialChecks(t *testing.T) {
	// A transaction referencing an unknown customer is rejected, and the
	// items hanging off it cascade to missing_parent as well.
	set := validStagingSet()
	set.Transactions[0].CustomerID = "CUST9999"

	res, err := Gate(set)
	if err != nil {
		t.Fatalf("Gate failed: %v", err)
	}

	if got := res.Report.Entities["transactions"].Reasons[model.ReasonMissingParent]; got != 1 {
		t.Errorf("Expected transaction missing_parent rejection, got %v",
			res.Report.Entities["transactions"].Reasons)
	}
	if got := res.Report.Entities["transaction_items"].Reasons[model.ReasonMissingParent]; got != 1 {
		t.Errorf("Expected item missing_parent rejection, got %v",
			res.Report.Entities["transaction_items"].Reasons)
	}
}

func TestGateRejectedRowsNeverAccepted(t *testing.T) {
	set := validStagingSet()
	set.Customers = append(set.Customers, model.StagingCustomer{
		CustomerID: "CUST0002", FirstName: "No", LastName: "Email",
		RegistrationDate: "2022-01-01",
	})

	res, err := Gate(set)
	if err != nil {
		t.Fatalf("Gate failed: %v", err)
	}

	for _, c := range res.Accepted.Customers {
		if c.CustomerID == "CUST0002" {
			t.Error("Rejected customer appeared in accepted partition")
		}
	}
	if len(res.Rejected) != 1 {
		t.Errorf("Expected 1 rejected row, got %d", len(res.Rejected))
	}
}

func TestGateEmptyEntityIsFatal(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.StagingSet)
	}{
		{"no customers", func(s *model.StagingSet) { s.Customers = nil }},
		{"no products", func(s *model.StagingSet) { s.Products = nil }},
		{"no transactions", func(s *model.StagingSet) { s.Transactions = nil }},
		{"no items", func(s *model.StagingSet) { s.Items = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := validStagingSet()
			tt.mutate(&set)
			if _, err := Gate(set); err == nil {
				t.Error("Expected fatal error for empty entity set, got nil")
			}
		})
	}
}
