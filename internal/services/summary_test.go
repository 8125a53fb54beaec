package services

import (
	"context"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ledger/ledgertest"
	"finanzas/internal/ledger/memory"
)

func TestSummarizeProjection(t *testing.T) {
	months := []core.MonthTotal{
		{PersonA: cents(100), PersonB: cents(50), Total: cents(150)},
		{PersonA: cents(101), PersonB: cents(0), Total: cents(101)},
		{PersonA: core.Money{Cents: 1}, Total: core.Money{Cents: 1}},
	}
	s := SummarizeProjection(months)
	if s.Months != 3 || s.TotalA.Cents != 20101 || s.TotalB.Cents != 5000 || s.Total.Cents != 25101 {
		t.Fatalf("unexpected totals %+v", s)
	}
	// averages truncate to whole cents
	if s.AverageA.Cents != 6700 || s.AverageB.Cents != 1666 || s.Average.Cents != 8367 {
		t.Fatalf("unexpected averages %+v", s)
	}

	empty := SummarizeProjection(nil)
	if empty.Months != 0 || !empty.Average.IsZero() {
		t.Fatalf("empty summary %+v", empty)
	}
}

func TestBalancesByMethod(t *testing.T) {
	may := core.YearMonth{Year: 2024, Month: time.May}

	visa := ledgertest.Installment("TV", 10000, core.PayerA, 6)
	visa.InstallmentsPaid = 2
	done := ledgertest.Installment("Silla", 5000, core.PayerB, 2)
	done.InstallmentsPaid = 2
	cash := ledgertest.Installment("Bici", 3000, core.PayerB, 3)
	cash.PaymentMethod = " "

	rent := ledgertest.Fixed("Alquiler", 50000, core.PayerBoth)
	rent.Overrides = map[core.YearMonth]core.Money{may: cents(520)}
	off := ledgertest.Fixed("Gym", 2000, core.PayerA)
	off.Active = false

	got := BalancesByMethod([]core.InstallmentExpense{visa, done, cash}, []core.FixedExpense{rent, off}, may, may)
	want := []core.MethodBalance{
		{Method: "BROU", Fixed: 1, DueThisMonth: cents(520)},
		{Method: "Sin asignar", Installments: 1, DueThisMonth: cents(30), Outstanding: cents(90)},
		{Method: "Visa", Installments: 1, DueThisMonth: cents(100), Outstanding: cents(400)},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d groups: %+v", len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("group %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBalancesByMethodFollowsInstallmentWindow(t *testing.T) {
	may := core.YearMonth{Year: 2024, Month: time.May}
	tv := ledgertest.Installment("TV", 10000, core.PayerA, 3)
	tv.InstallmentsPaid = 1 // two left: May and June

	cases := []struct {
		name  string
		month core.YearMonth
		due   int64
	}{
		{"before billing start", may.AddMonths(-1), 0},
		{"billing start", may, 10000},
		{"last installment", may.AddMonths(1), 10000},
		{"after last installment", may.AddMonths(2), 0},
		{"far future", core.YearMonth{Year: 2030, Month: time.January}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BalancesByMethod([]core.InstallmentExpense{tv}, nil, may, tc.month)
			if len(got) != 1 {
				t.Fatalf("got %+v", got)
			}
			if got[0].DueThisMonth.Cents != tc.due || got[0].Outstanding.Cents != 20000 || got[0].Installments != 1 {
				t.Fatalf("unexpected balance %+v", got[0])
			}
			cats := CategoryTotals([]core.InstallmentExpense{tv}, nil, may, tc.month)
			if tc.due == 0 && len(cats) != 0 {
				t.Fatalf("expected no category totals, got %+v", cats)
			}
			if tc.due != 0 && (len(cats) != 1 || cats[0].Amount.Cents != tc.due) {
				t.Fatalf("unexpected category totals %+v", cats)
			}
		})
	}
}

func TestCategoryTotals(t *testing.T) {
	jan := core.YearMonth{Year: 2024, Month: time.January}
	a := ledgertest.Installment("TV", 10000, core.PayerA, 6)
	b := ledgertest.Installment("Pintura", 2500, core.PayerB, 2)
	c := ledgertest.Fixed("Luz", 4000, core.PayerA)
	d := ledgertest.Fixed("Netflix", 600, core.PayerB)
	d.Category = ""

	got := CategoryTotals([]core.InstallmentExpense{a, b}, []core.FixedExpense{c, d}, jan, jan)
	want := map[string]int64{"Hogar": 12500, "Servicios": 4000, "Sin asignar": 600}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i, ca := range got {
		if want[ca.Name] != ca.Amount.Cents {
			t.Fatalf("%s = %d, want %d", ca.Name, ca.Amount.Cents, want[ca.Name])
		}
		if i > 0 && got[i-1].Name > ca.Name {
			t.Fatalf("categories not sorted: %+v", got)
		}
	}
}

func TestProjectorReport(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	if _, err := store.InsertFixed(ctx, ledgertest.Fixed("Internet", 2000, core.PayerBoth)); err != nil {
		t.Fatal(err)
	}
	p := NewProjector(store, nil)

	r, err := p.Report(ctx, day(2024, time.January, 5), 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if r.AsOf != "2024-01-05" || r.ClosingDay != 10 || len(r.Months) != 2 {
		t.Fatalf("unexpected report header %+v", r)
	}
	if r.Summary.Total.Cents != 4000 || r.Summary.AverageA.Cents != 1000 {
		t.Fatalf("unexpected summary %+v", r.Summary)
	}

	if _, err := p.Report(ctx, day(2024, time.January, 5), 40, 2); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	b, err := p.BalancesFor(ctx, day(2024, time.January, 5), 10, core.YearMonth{Year: 2024, Month: time.January})
	if err != nil {
		t.Fatal(err)
	}
	if len(b.ByMethod) != 1 || b.ByMethod[0].DueThisMonth.Cents != 2000 {
		t.Fatalf("unexpected balances %+v", b)
	}
	if _, err := p.BalancesFor(ctx, day(2024, time.January, 5), 0, b.Month); !core.IsValidation(err) {
		t.Fatalf("expected validation error for closing day 0, got %v", err)
	}
}
