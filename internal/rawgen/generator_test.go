package rawgen

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/datamill-io/ecomflow/internal/staging"
)

func testConfig(dir string) Config {
	return Config{
		Customers:    20,
		Products:     10,
		Transactions: 50,
		Seed:         42,
		StartDate:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		DaySpan:      90,
		OutputDir:    dir,
	}
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	meta, err := Generate(testConfig(dir))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if meta.RecordCounts["customers"] != 20 {
		t.Errorf("Expected 20 customers, got %d", meta.RecordCounts["customers"])
	}
	if meta.RecordCounts["products"] != 10 {
		t.Errorf("Expected 10 products, got %d", meta.RecordCounts["products"])
	}
	if meta.RecordCounts["transactions"] != 50 {
		t.Errorf("Expected 50 transactions, got %d", meta.RecordCounts["transactions"])
	}
	// 1 to 5 items per transaction.
	items := meta.RecordCounts["transaction_items"]
	if items < 50 || items > 250 {
		t.Errorf("Item count %d outside expected bounds", items)
	}

	for _, name := range []string{
		staging.CustomersFile, staging.ProductsFile,
		staging.TxnsFile, staging.ItemsFile, "generation_metadata.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected output file %s: %v", name, err)
		}
	}
}

func TestGenerateReferentialIntegrity(t *testing.T) {
	dir := t.TempDir()
	meta, err := Generate(testConfig(dir))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	q := meta.Quality
	if q.ConstraintViolations != 0 {
		t.Errorf("Expected no constraint violations, got %+v", q)
	}
	if q.DataQualityScore != 100 {
		t.Errorf("Expected quality score 100, got %d", q.DataQualityScore)
	}
}

func TestGenerateLoadableByStagingLoader(t *testing.T) {
	dir := t.TempDir()
	if _, err := Generate(testConfig(dir)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	set, err := staging.LoadDir(dir)
	if err != nil {
		t.Fatalf("Generated feeds failed to load: %v", err)
	}
	if len(set.Customers) != 20 || len(set.Transactions) != 50 {
		t.Errorf("Unexpected loaded counts: %d customers, %d transactions",
			len(set.Customers), len(set.Transactions))
	}

	for _, c := range set.Customers {
		if c.CustomerID == "" || c.Email == "" {
			t.Errorf("Generated customer with missing required field: %+v", c)
		}
	}
}

func TestGenerateSeededReproducibility(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()

	if _, err := Generate(testConfig(dirA)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := Generate(testConfig(dirB)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, name := range []string{
		staging.CustomersFile, staging.ProductsFile,
		staging.TxnsFile, staging.ItemsFile,
	} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		if err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(filepath.Join(dirB, name))
		if err != nil {
			t.Fatal(err)
		}
		if string(a) != string(b) {
			t.Errorf("Seeded runs diverged on %s", name)
		}
	}
}

func TestGenerateDateRangeWithinSpan(t *testing.T) {
	dir := t.TempDir()
	meta, err := Generate(testConfig(dir))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if meta.DateRange.Start < "2023-01-01" || meta.DateRange.End > "2023-03-31" {
		t.Errorf("Date range %s..%s outside configured span",
			meta.DateRange.Start, meta.DateRange.End)
	}
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero customers", func(c *Config) { c.Customers = 0 }},
		{"zero products", func(c *Config) { c.Products = 0 }},
		{"negative transactions", func(c *Config) { c.Transactions = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t.TempDir())
			tt.mutate(&cfg)
			if _, err := Generate(cfg); err == nil {
				t.Error("Expected config error, got nil")
			}
		})
	}
}
