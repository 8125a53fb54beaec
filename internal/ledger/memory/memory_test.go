package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/ledger/ledgertest"
)

func TestStoreContract(t *testing.T) {
	ledgertest.RunStoreTests(t, func(t *testing.T) ledger.Store { return New() })
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	f, err := s.InsertFixed(ctx, ledgertest.Fixed("Agua", 1000, core.PayerA))
	if err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetFixed(ctx, f.ID)
	got.Overrides = map[core.YearMonth]core.Money{{Year: 2024, Month: 1}: {Cents: 1}}
	got.Description = "changed"

	back, _ := s.GetFixed(ctx, f.ID)
	if back.Description != "Agua" || len(back.Overrides) != 0 {
		t.Fatalf("store state leaked through returned copy: %+v", back)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	// Missing file -> empty store
	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if list, _ := s.ListInstallments(context.Background()); len(list) != 0 {
		t.Fatalf("expected empty store")
	}

	seed := `{
		"installments": [
			{"id": 4, "description": "Notebook", "amount": "12.500,00", "payer": "A",
			 "payment_method": "Visa", "installments_total": 12, "installments_paid": 3,
			 "settled_months": ["2024-01"]}
		],
		"fixed": [
			{"description": "Alquiler", "amount": 25000, "payer": "both", "account": "BROU",
			 "active": true, "split": {"A": 40, "B": 60}, "overrides": {"2024-05": 26000}}
		]
	}`
	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	ctx := context.Background()
	e, err := s.GetInstallment(ctx, 4)
	if err != nil {
		t.Fatalf("seeded installment: %v", err)
	}
	if e.Amount.Cents != 1250000 || e.InstallmentsPaid != 3 || len(e.SettledMonths) != 1 {
		t.Fatalf("unexpected seeded installment %+v", e)
	}

	fixed, _ := s.ListFixed(ctx)
	if len(fixed) != 1 || fixed[0].ID != 5 || fixed[0].Split.B != 60 {
		t.Fatalf("unexpected seeded fixed %+v", fixed)
	}

	// New records continue after the highest seeded id
	next, _ := s.InsertInstallment(ctx, ledgertest.Installment("Mesa", 100, core.PayerB, 2))
	if next.ID != 6 {
		t.Fatalf("expected id 6, got %d", next.ID)
	}
}

func TestNewFromFileRejectsInvalidSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(`{"installments":[{"description":"x","amount":0,"payer":"A","installments_total":1}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatalf("expected error for invalid seed record")
	}
}
