// Package rawgen is the synthetic raw-source producer. It writes the four
// CSV feeds the pipeline ingests, plus a generation metadata file with a
// referential-integrity self-check. It is a collaborator of the pipeline,
// not part of it: nothing under internal/staging or downstream imports
// this package.
package rawgen

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/datamill-io/ecomflow/internal/datagen"
	"github.com/datamill-io/ecomflow/internal/logging"
	"github.com/datamill-io/ecomflow/internal/staging"
)

var (
	ageGroups = []string{"18-25", "26-35", "36-45", "46-60", "60+"}

	paymentMethods = []string{
		"Credit Card", "Debit Card", "UPI", "Cash on Delivery", "Net Banking",
	}

	categories = map[string][]string{
		"Electronics":    {"Mobiles", "Laptops", "Accessories"},
		"Clothing":       {"Men", "Women", "Kids"},
		"Home & Kitchen": {"Furniture", "Appliances", "Decor"},
		"Books":          {"Fiction", "Education", "Comics"},
		"Sports":         {"Outdoor", "Indoor", "Fitness"},
		"Beauty":         {"Skincare", "Makeup", "Haircare"},
	}

	categoryNames = []string{
		"Electronics", "Clothing", "Home & Kitchen", "Books", "Sports", "Beauty",
	}

	discountChoices = []float64{0, 5, 10, 15}
)

// Config controls the generated volume and reproducibility.
type Config struct {
	Customers    int
	Products     int
	Transactions int

	// Seed makes output reproducible when non-zero.
	Seed uint64

	// StartDate is the first possible transaction date; transactions are
	// spread over DaySpan days from it.
	StartDate time.Time
	DaySpan   int

	OutputDir string
}

// Metadata summarizes one generation run, written alongside the CSVs.
type Metadata struct {
	GeneratedAt  time.Time      `json:"generated_at"`
	Seed         uint64         `json:"seed,omitempty"`
	RecordCounts map[string]int `json:"record_counts"`
	DateRange    struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date_range"`
	Quality IntegrityCheck `json:"quality"`
}

// IntegrityCheck is the self-check over the generated feeds: counts of
// dangling references plus a 0-100 score.
type IntegrityCheck struct {
	OrphanCustomerRefs    int `json:"orphan_customer_refs"`
	OrphanProductRefs     int `json:"orphan_product_refs"`
	OrphanTransactionRefs int `json:"orphan_transaction_refs"`
	ConstraintViolations  int `json:"constraint_violations"`
	DataQualityScore      int `json:"data_quality_score"`
}

type customer struct {
	id, firstName, lastName, email, phone, regDate string
	city, state, country, ageGroup                 string
}

type product struct {
	id, name, category, subCategory string
	price, cost                     float64
	brand                           string
	stock                           int
	supplierID                      string
}

type transaction struct {
	id, customerID, date, timeOfDay, paymentMethod, address string
	total                                                   float64
}

type item struct {
	id, transactionID, productID string
	quantity                     int
	unitPrice, discount, total   float64
}

// Generate produces the four raw CSV feeds and the metadata file.
func Generate(cfg Config) (*Metadata, error) {
	if cfg.Customers <= 0 || cfg.Products <= 0 || cfg.Transactions <= 0 {
		return nil, fmt.Errorf("customers, products and transactions must all be positive")
	}
	if cfg.DaySpan <= 0 {
		cfg.DaySpan = 365
	}
	if cfg.StartDate.IsZero() {
		cfg.StartDate = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	var faker *datagen.Faker
	if cfg.Seed != 0 {
		faker = datagen.NewFakerWithSeed(cfg.Seed)
	} else {
		faker = datagen.NewFaker()
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	g := &generator{faker: faker, cfg: cfg}

	customers := g.customers()
	products := g.products()
	transactions := g.transactions(customers)
	items := g.items(transactions, products)

	logging.Info().
		Int("customers", len(customers)).
		Int("products", len(products)).
		Int("transactions", len(transactions)).
		Int("items", len(items)).
		Str("output", cfg.OutputDir).
		Msg("Generated raw feeds")

	if err := g.writeCSVs(customers, products, transactions, items); err != nil {
		return nil, err
	}

	meta := &Metadata{
		GeneratedAt: time.Now().UTC(),
		Seed:        cfg.Seed,
		RecordCounts: map[string]int{
			"customers":         len(customers),
			"products":          len(products),
			"transactions":      len(transactions),
			"transaction_items": len(items),
		},
		Quality: checkIntegrity(customers, products, transactions, items),
	}
	meta.DateRange.Start, meta.DateRange.End = dateRange(transactions)

	if err := writeJSON(filepath.Join(cfg.OutputDir, "generation_metadata.json"), meta); err != nil {
		return nil, err
	}
	return meta, nil
}

type generator struct {
	faker *datagen.Faker
	cfg   Config
}

func (g *generator) customers() []customer {
	rows := make([]customer, 0, g.cfg.Customers)
	usedEmails := make(map[string]struct{}, g.cfg.Customers)

	for i := 1; i <= g.cfg.Customers; i++ {
		email := g.faker.Email()
		for j := 0; ; j++ {
			if _, taken := usedEmails[email]; !taken {
				break
			}
			if j >= 10 {
				email = fmt.Sprintf("%d.%s", i, email)
				break
			}
			email = g.faker.Email()
		}
		usedEmails[email] = struct{}{}

		regDate := g.cfg.StartDate.AddDate(0, 0, -g.faker.Int(1, 3*365))
		rows = append(rows, customer{
			id:        fmt.Sprintf("CUST%04d", i),
			firstName: g.faker.FirstName(),
			lastName:  g.faker.LastName(),
			email:     email,
			phone:     g.faker.Phone(),
			regDate:   regDate.Format("2006-01-02"),
			city:      g.faker.City(),
			state:     g.faker.State(),
			country:   "USA",
			ageGroup:  datagen.Choose(g.faker, ageGroups),
		})
	}
	return rows
}

func (g *generator) products() []product {
	rows := make([]product, 0, g.cfg.Products)
	for i := 1; i <= g.cfg.Products; i++ {
		category := datagen.Choose(g.faker, categoryNames)
		price := g.faker.Price(200, 5000)
		rows = append(rows, product{
			id:          fmt.Sprintf("PROD%04d", i),
			name:        g.faker.ProductName(),
			category:    category,
			subCategory: datagen.Choose(g.faker, categories[category]),
			price:       round2(price),
			cost:        round2(price * g.faker.Float64(0.5, 0.8)),
			brand:       g.faker.Company(),
			stock:       g.faker.Int(10, 500),
			supplierID:  fmt.Sprintf("SUP%03d", g.faker.Int(1, 100)),
		})
	}
	return rows
}

func (g *generator) transactions(customers []customer) []transaction {
	rows := make([]transaction, 0, g.cfg.Transactions)
	for i := 1; i <= g.cfg.Transactions; i++ {
		date := g.cfg.StartDate.AddDate(0, 0, g.faker.Int(0, g.cfg.DaySpan-1))
		address := fmt.Sprintf("%s, %s, %s %s",
			g.faker.Street(), g.faker.City(), g.faker.State(), g.faker.Zip())
		rows = append(rows, transaction{
			id:            fmt.Sprintf("TXN%06d", i),
			customerID:    datagen.Choose(g.faker, customers).id,
			date:          date.Format("2006-01-02"),
			timeOfDay:     fmt.Sprintf("%02d:%02d:%02d", g.faker.Int(0, 23), g.faker.Int(0, 59), g.faker.Int(0, 59)),
			paymentMethod: datagen.Choose(g.faker, paymentMethods),
			address:       address,
		})
	}
	return rows
}

func (g *generator) items(transactions []transaction, products []product) []item {
	var rows []item
	itemID := 1

	for ti := range transactions {
		count := g.faker.Int(1, 5)
		chosen := g.chooseDistinctProducts(products, count)

		var total float64
		for _, p := range chosen {
			qty := g.faker.Int(1, 4)
			discount := datagen.Choose(g.faker, discountChoices)
			lineTotal := round2(float64(qty) * p.price * (1 - discount/100))
			total += lineTotal

			rows = append(rows, item{
				id:            fmt.Sprintf("ITEM%06d", itemID),
				transactionID: transactions[ti].id,
				productID:     p.id,
				quantity:      qty,
				unitPrice:     p.price,
				discount:      discount,
				total:         lineTotal,
			})
			itemID++
		}
		transactions[ti].total = round2(total)
	}
	return rows
}

func (g *generator) chooseDistinctProducts(products []product, count int) []product {
	if count > len(products) {
		count = len(products)
	}
	chosen := make([]product, 0, count)
	seen := make(map[string]struct{}, count)
	for len(chosen) < count {
		p := datagen.Choose(g.faker, products)
		if _, dup := seen[p.id]; dup {
			continue
		}
		seen[p.id] = struct{}{}
		chosen = append(chosen, p)
	}
	return chosen
}

func (g *generator) writeCSVs(customers []customer, products []product, transactions []transaction, items []item) error {
	if err := writeCSV(filepath.Join(g.cfg.OutputDir, staging.CustomersFile),
		[]string{"customer_id", "first_name", "last_name", "email", "phone",
			"registration_date", "city", "state", "country", "age_group"},
		len(customers), func(i int) []string {
			c := customers[i]
			return []string{c.id, c.firstName, c.lastName, c.email, c.phone,
				c.regDate, c.city, c.state, c.country, c.ageGroup}
		}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(g.cfg.OutputDir, staging.ProductsFile),
		[]string{"product_id", "product_name", "category", "sub_category",
			"price", "cost", "brand", "stock_quantity", "supplier_id"},
		len(products), func(i int) []string {
			p := products[i]
			return []string{p.id, p.name, p.category, p.subCategory,
				formatAmount(p.price), formatAmount(p.cost), p.brand,
				fmt.Sprintf("%d", p.stock), p.supplierID}
		}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(g.cfg.OutputDir, staging.TxnsFile),
		[]string{"transaction_id", "customer_id", "transaction_date",
			"transaction_time", "payment_method", "shipping_address", "total_amount"},
		len(transactions), func(i int) []string {
			t := transactions[i]
			return []string{t.id, t.customerID, t.date, t.timeOfDay,
				t.paymentMethod, t.address, formatAmount(t.total)}
		}); err != nil {
		return err
	}

	return writeCSV(filepath.Join(g.cfg.OutputDir, staging.ItemsFile),
		[]string{"item_id", "transaction_id", "product_id", "quantity",
			"unit_price", "discount_percentage", "line_total"},
		len(items), func(i int) []string {
			it := items[i]
			return []string{it.id, it.transactionID, it.productID,
				fmt.Sprintf("%d", it.quantity), formatAmount(it.unitPrice),
				formatAmount(it.discount), formatAmount(it.total)}
		})
}

func checkIntegrity(customers []customer, products []product, transactions []transaction, items []item) IntegrityCheck {
	customerIDs := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		customerIDs[c.id] = struct{}{}
	}
	productIDs := make(map[string]struct{}, len(products))
	for _, p := range products {
		productIDs[p.id] = struct{}{}
	}
	txnIDs := make(map[string]struct{}, len(transactions))
	for _, t := range transactions {
		txnIDs[t.id] = struct{}{}
	}

	var check IntegrityCheck
	for _, t := range transactions {
		if _, ok := customerIDs[t.customerID]; !ok {
			check.OrphanCustomerRefs++
		}
	}
	for _, it := range items {
		if _, ok := productIDs[it.productID]; !ok {
			check.OrphanProductRefs++
		}
		if _, ok := txnIDs[it.transactionID]; !ok {
			check.OrphanTransactionRefs++
		}
	}
	check.ConstraintViolations = check.OrphanCustomerRefs +
		check.OrphanProductRefs + check.OrphanTransactionRefs
	check.DataQualityScore = 100 - check.ConstraintViolations
	if check.DataQualityScore < 0 {
		check.DataQualityScore = 0
	}
	return check
}

func dateRange(transactions []transaction) (string, string) {
	if len(transactions) == 0 {
		return "", ""
	}
	start, end := transactions[0].date, transactions[0].date
	for _, t := range transactions[1:] {
		if t.date < start {
			start = t.date
		}
		if t.date > end {
			end = t.date
		}
	}
	return start, end
}

func writeCSV(path string, header []string, n int, row func(i int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
