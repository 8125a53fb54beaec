package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2024-03-15"`), &d); err != nil {
		t.Fatal(err)
	}
	if !d.Equal(NewDate(2024, 3, 15).Time) {
		t.Fatalf("unexpected date %v", d)
	}
	b, _ := json.Marshal(d)
	if string(b) != `"2024-03-15"` {
		t.Fatalf("marshal = %s", b)
	}
	b, _ = json.Marshal(Date{})
	if string(b) != "null" {
		t.Fatalf("zero date marshal = %s", b)
	}
	if err := json.Unmarshal([]byte(`"15/03/2024"`), &d); err == nil {
		t.Fatalf("expected error for wrong layout")
	}
}

func TestParsePayer(t *testing.T) {
	cases := map[string]Payer{"a": PayerA, "B": PayerB, " both ": PayerBoth, "Ambos": PayerBoth}
	for in, want := range cases {
		got, err := ParsePayer(in)
		if err != nil || got != want {
			t.Fatalf("ParsePayer(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePayer("C"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func validInstallment() InstallmentExpense {
	return InstallmentExpense{
		Date:              NewDate(2024, 3, 1),
		Description:       "Heladera",
		Amount:            Money{Cents: 10000},
		Payer:             PayerA,
		PaymentMethod:     "Visa",
		InstallmentsTotal: 6,
	}
}

func TestInstallmentValidate(t *testing.T) {
	if err := validInstallment().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*InstallmentExpense)
		want   error
	}{
		{"zero amount", func(e *InstallmentExpense) { e.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(e *InstallmentExpense) { e.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"no installments", func(e *InstallmentExpense) { e.InstallmentsTotal = 0 }, ErrInvalidInstallments},
		{"paid above total", func(e *InstallmentExpense) { e.InstallmentsPaid = 7 }, ErrInvalidInstallments},
		{"shared payer", func(e *InstallmentExpense) { e.Payer = PayerBoth }, ErrInvalidPayer},
		{"blank description", func(e *InstallmentExpense) { e.Description = "  " }, ErrEmptyDescription},
		{"long description", func(e *InstallmentExpense) { e.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validInstallment()
			tt.mutate(&e)
			err := e.Validate()
			if !IsValidation(err) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestInstallmentRemaining(t *testing.T) {
	e := validInstallment()
	e.InstallmentsPaid = 2
	if e.Remaining() != 4 || e.Finished() {
		t.Fatalf("remaining = %d", e.Remaining())
	}
	e.InstallmentsPaid = 6
	if !e.Finished() {
		t.Fatalf("expected finished")
	}
}

func TestFixedActiveIn(t *testing.T) {
	f := FixedExpense{
		Description: "Alquiler",
		Amount:      Money{Cents: 50000},
		Payer:       PayerBoth,
		Active:      true,
		StartDate:   NewDate(2024, 2, 10),
		EndDate:     NewDate(2024, 5, 1),
	}
	cases := []struct {
		month YearMonth
		want  bool
	}{
		{YearMonth{2024, time.January}, false},
		{YearMonth{2024, time.February}, true},
		{YearMonth{2024, time.May}, true},
		{YearMonth{2024, time.June}, false},
	}
	for _, tc := range cases {
		if got := f.ActiveIn(tc.month); got != tc.want {
			t.Fatalf("ActiveIn(%s) = %v, want %v", tc.month, got, tc.want)
		}
	}
	f.Active = false
	if f.ActiveIn(YearMonth{2024, time.March}) {
		t.Fatalf("inactive expense must not apply")
	}
}

func TestFixedAmountFor(t *testing.T) {
	mar := YearMonth{2024, time.March}
	f := FixedExpense{
		Amount:    Money{Cents: 50000},
		Overrides: map[YearMonth]Money{mar: {Cents: 42000}},
	}
	if got := f.AmountFor(mar); got.Cents != 42000 {
		t.Fatalf("override not applied: %d", got.Cents)
	}
	if got := f.AmountFor(mar.AddMonths(1)); got.Cents != 50000 {
		t.Fatalf("base amount expected, got %d", got.Cents)
	}
}

func TestFixedValidate(t *testing.T) {
	f := FixedExpense{Description: "Luz", Amount: Money{Cents: 100}, Payer: PayerBoth, Split: DefaultSplit}
	if err := f.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := f
	bad.Split = SplitRatio{A: 120, B: 0}
	if !errors.Is(bad.Validate(), ErrInvalidRatio) {
		t.Fatalf("expected ratio error")
	}

	bad = f
	bad.Split = SplitRatio{A: 30, B: 30}
	if !errors.Is(bad.Validate(), ErrInvalidRatio) {
		t.Fatalf("expected ratio error for a split not adding up to 100")
	}

	ok := f
	ok.Split = SplitRatio{A: 33.3, B: 66.7}
	if err := ok.Validate(); err != nil {
		t.Fatalf("33.3/66.7 should be valid: %v", err)
	}

	bad = f
	bad.StartDate = NewDate(2024, 5, 1)
	bad.EndDate = NewDate(2024, 4, 1)
	if !errors.Is(bad.Validate(), ErrInvalidDateRange) {
		t.Fatalf("expected date range error")
	}

	bad = f
	bad.Payer = "C"
	if !errors.Is(bad.Validate(), ErrInvalidPayer) {
		t.Fatalf("expected payer error")
	}
}

func TestFixedOverridesJSON(t *testing.T) {
	f := FixedExpense{Overrides: map[YearMonth]Money{{2024, time.March}: {Cents: 1250}}}
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"overrides":{"2024-03":12.50}`) {
		t.Fatalf("unexpected json %s", b)
	}

	var back FixedExpense
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.Overrides[YearMonth{2024, time.March}].Cents != 1250 {
		t.Fatalf("override lost: %+v", back.Overrides)
	}
}

func TestErrorPredicates(t *testing.T) {
	nf := &NotFoundError{Kind: "installment", ID: 7}
	if !IsNotFound(nf) || IsValidation(nf) {
		t.Fatalf("predicates wrong for %v", nf)
	}
	if nf.Error() != "installment 7 not found" {
		t.Fatalf("unexpected message %q", nf.Error())
	}

	base := errors.New("disk full")
	se := &StorageError{Op: "insert installment", Err: base}
	if !IsStorage(se) || !errors.Is(se, base) {
		t.Fatalf("storage error should unwrap")
	}
}
