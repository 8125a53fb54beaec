// Package ledgertest holds behaviour tests shared by every ledger.Store
// implementation.
package ledgertest

import (
	"context"
	"errors"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

// Installment returns a valid installment record for tests.
func Installment(desc string, cents int64, payer core.Payer, total int) core.InstallmentExpense {
	return core.InstallmentExpense{
		Date:              core.NewDate(2024, 1, 15),
		Description:       desc,
		Category:          "Hogar",
		Amount:            core.Money{Cents: cents},
		Payer:             payer,
		PaymentMethod:     "Visa",
		InstallmentsTotal: total,
	}
}

// Fixed returns a valid, active fixed expense for tests.
func Fixed(desc string, cents int64, payer core.Payer) core.FixedExpense {
	return core.FixedExpense{
		Description: desc,
		Category:    "Servicios",
		Amount:      core.Money{Cents: cents},
		Payer:       payer,
		Account:     "BROU",
		Active:      true,
	}
}

// RunStoreTests exercises the ledger.Store contract against stores built by newStore.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("insert installment resets progress", func(t *testing.T) {
		s := newStore(t)
		in := Installment("TV", 10000, core.PayerA, 6)
		in.InstallmentsPaid = 3
		in.SettledMonths = core.NewMonthSet(core.YearMonth{Year: 2024, Month: time.January})

		got, err := s.InsertInstallment(ctx, in)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if got.ID == 0 || got.InstallmentsPaid != 0 || len(got.SettledMonths) != 0 {
			t.Fatalf("unexpected inserted record %+v", got)
		}

		back, err := s.GetInstallment(ctx, got.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if back.Description != "TV" || back.Amount.Cents != 10000 || back.PaymentMethod != "Visa" || back.Category != "Hogar" {
			t.Fatalf("round trip mismatch %+v", back)
		}
		if !back.Date.Equal(in.Date.Time) {
			t.Fatalf("date mismatch %v", back.Date)
		}
	})

	t.Run("insert rejects invalid records", func(t *testing.T) {
		s := newStore(t)
		bad := []core.InstallmentExpense{
			Installment("zero", 0, core.PayerA, 3),
			Installment("none", 100, core.PayerA, 0),
			Installment("shared", 100, core.PayerBoth, 3),
		}
		for _, e := range bad {
			if _, err := s.InsertInstallment(ctx, e); !core.IsValidation(err) {
				t.Fatalf("%s: expected validation error, got %v", e.Description, err)
			}
		}
		f := Fixed("neg", -5, core.PayerA)
		if _, err := s.InsertFixed(ctx, f); !core.IsValidation(err) {
			t.Fatalf("expected validation error for fixed, got %v", err)
		}
		list, _ := s.ListInstallments(ctx)
		if len(list) != 0 {
			t.Fatalf("invalid records must not be stored")
		}
	})

	t.Run("fixed round trip with split and overrides", func(t *testing.T) {
		s := newStore(t)
		mar := core.YearMonth{Year: 2024, Month: time.March}
		f := Fixed("Alquiler", 2500000, core.PayerBoth)
		f.Split = core.SplitRatio{A: 30, B: 70}
		f.Overrides = map[core.YearMonth]core.Money{mar: {Cents: 2600000}}
		f.StartDate = core.NewDate(2024, 1, 1)

		got, err := s.InsertFixed(ctx, f)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		back, err := s.GetFixed(ctx, got.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if back.Split != f.Split || back.AmountFor(mar).Cents != 2600000 || !back.Active {
			t.Fatalf("round trip mismatch %+v", back)
		}
		if !back.StartDate.Equal(f.StartDate.Time) || !back.EndDate.IsEmpty() {
			t.Fatalf("date window mismatch %v..%v", back.StartDate, back.EndDate)
		}
	})

	t.Run("fixed defaults to even split", func(t *testing.T) {
		s := newStore(t)
		got, err := s.InsertFixed(ctx, Fixed("Luz", 300000, core.PayerBoth))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if got.Split != core.DefaultSplit {
			t.Fatalf("expected default split, got %+v", got.Split)
		}
	})

	t.Run("fixed split must add up to 100", func(t *testing.T) {
		s := newStore(t)
		f := Fixed("Agua", 150000, core.PayerBoth)
		f.Split = core.SplitRatio{A: 30, B: 30}
		if _, err := s.InsertFixed(ctx, f); !core.IsValidation(err) {
			t.Fatalf("insert with 30/30: expected validation error, got %v", err)
		}

		got, err := s.InsertFixed(ctx, Fixed("Agua", 150000, core.PayerBoth))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		bad := core.SplitRatio{A: 30, B: 30}
		if _, err := s.UpdateFixed(ctx, got.ID, ledger.FixedPatch{Split: &bad}); !core.IsValidation(err) {
			t.Fatalf("update with 30/30: expected validation error, got %v", err)
		}
		weightless := core.SplitRatio{}
		updated, err := s.UpdateFixed(ctx, got.ID, ledger.FixedPatch{Split: &weightless})
		if err != nil {
			t.Fatalf("update with 0/0: %v", err)
		}
		if updated.Split != core.DefaultSplit {
			t.Fatalf("expected 0/0 to fall back to 50/50, got %+v", updated.Split)
		}
	})

	t.Run("update installment patch", func(t *testing.T) {
		s := newStore(t)
		e, _ := s.InsertInstallment(ctx, Installment("Sofa", 5000, core.PayerB, 3))

		paid := 2
		months := core.NewMonthSet(core.YearMonth{Year: 2024, Month: time.February})
		got, err := s.UpdateInstallment(ctx, e.ID, ledger.InstallmentPatch{InstallmentsPaid: &paid, SettledMonths: &months})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.InstallmentsPaid != 2 || got.Description != "Sofa" {
			t.Fatalf("patch not applied %+v", got)
		}
		back, _ := s.GetInstallment(ctx, e.ID)
		if !back.SettledMonths.Contains(core.YearMonth{Year: 2024, Month: time.February}) {
			t.Fatalf("settled months not persisted: %v", back.SettledMonths)
		}

		tooMany := 4
		if _, err := s.UpdateInstallment(ctx, e.ID, ledger.InstallmentPatch{InstallmentsPaid: &tooMany}); !core.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("update fixed patch", func(t *testing.T) {
		s := newStore(t)
		f, _ := s.InsertFixed(ctx, Fixed("Internet", 150000, core.PayerA))

		inactive := false
		amount := core.Money{Cents: 160000}
		got, err := s.UpdateFixed(ctx, f.ID, ledger.FixedPatch{Active: &inactive, Amount: &amount})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Active || got.Amount.Cents != 160000 || got.Account != "BROU" {
			t.Fatalf("patch not applied %+v", got)
		}
	})

	t.Run("missing ids", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.GetInstallment(ctx, 999); !core.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
		if _, err := s.GetFixed(ctx, 999); !core.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
		desc := "x"
		if _, err := s.UpdateInstallment(ctx, 999, ledger.InstallmentPatch{Description: &desc}); !core.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
		var nf *core.NotFoundError
		_, err := s.UpdateFixed(ctx, 999, ledger.FixedPatch{Description: &desc})
		if !errors.As(err, &nf) || nf.Kind != ledger.KindFixed {
			t.Fatalf("expected fixed not found, got %v", err)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		e, _ := s.InsertInstallment(ctx, Installment("Bici", 1000, core.PayerA, 2))
		f, _ := s.InsertFixed(ctx, Fixed("Gym", 1000, core.PayerB))
		for i := 0; i < 2; i++ {
			if err := s.DeleteInstallment(ctx, e.ID); err != nil {
				t.Fatalf("delete installment: %v", err)
			}
			if err := s.DeleteFixed(ctx, f.ID); err != nil {
				t.Fatalf("delete fixed: %v", err)
			}
		}
		if _, err := s.GetInstallment(ctx, e.ID); !core.IsNotFound(err) {
			t.Fatalf("expected deleted record to be gone")
		}
	})

	t.Run("list is ordered by id", func(t *testing.T) {
		s := newStore(t)
		for _, d := range []string{"uno", "dos", "tres"} {
			if _, err := s.InsertInstallment(ctx, Installment(d, 100, core.PayerA, 1)); err != nil {
				t.Fatal(err)
			}
			if _, err := s.InsertFixed(ctx, Fixed(d, 100, core.PayerA)); err != nil {
				t.Fatal(err)
			}
		}
		list, err := s.ListInstallments(ctx)
		if err != nil || len(list) != 3 {
			t.Fatalf("list installments: %v %v", list, err)
		}
		fixed, err := s.ListFixed(ctx)
		if err != nil || len(fixed) != 3 {
			t.Fatalf("list fixed: %v %v", fixed, err)
		}
		for i := 1; i < 3; i++ {
			if list[i].ID <= list[i-1].ID || fixed[i].ID <= fixed[i-1].ID {
				t.Fatalf("lists not ordered by id")
			}
		}
		if list[0].Description != "uno" {
			t.Fatalf("unexpected first record %q", list[0].Description)
		}
	})
}
