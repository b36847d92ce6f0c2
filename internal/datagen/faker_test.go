//-------------------------------------------------------------------------
//
// ecomflow - e-commerce warehouse ETL pipeline
//
// Portions copyright (c) 2025 - 2026, Datamill Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import "testing"

func TestFakerGeneratesNonEmpty(t *testing.T) {
	f := NewFaker()

	if f.FirstName() == "" {
		t.Error("FirstName returned empty string")
	}
	if f.Email() == "" {
		t.Error("Email returned empty string")
	}
	if f.City() == "" {
		t.Error("City returned empty string")
	}
	if f.ProductName() == "" {
		t.Error("ProductName returned empty string")
	}
}

func TestFakerSeedReproducibility(t *testing.T) {
	a := NewFakerWithSeed(12345)
	b := NewFakerWithSeed(12345)

	for i := 0; i < 10; i++ {
		if av, bv := a.Email(), b.Email(); av != bv {
			t.Errorf("Seeded fakers diverged at iteration %d: %q vs %q", i, av, bv)
		}
	}
}

func TestFakerIntRange(t *testing.T) {
	f := NewFakerWithSeed(1)
	for i := 0; i < 100; i++ {
		v := f.Int(1, 5)
		if v < 1 || v > 5 {
			t.Fatalf("Int(1, 5) returned %d", v)
		}
	}
}

func TestFakerPriceRange(t *testing.T) {
	f := NewFakerWithSeed(1)
	for i := 0; i < 100; i++ {
		p := f.Price(10, 100)
		if p < 10 || p > 100 {
			t.Fatalf("Price(10, 100) returned %v", p)
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFakerWithSeed(7)
	choices := []string{"a", "b", "c"}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		v := Choose(f, choices)
		if v != "a" && v != "b" && v != "c" {
			t.Fatalf("Choose returned %q, not in choices", v)
		}
		seen[v] = true
	}
	if len(seen) != 3 {
		t.Errorf("Expected all choices to appear over 100 draws, saw %v", seen)
	}
}
