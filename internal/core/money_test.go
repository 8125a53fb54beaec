package core

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{0, "0,00"},
		{1, "1,00"},
		{12.5, "12,50"},
		{999.99, "999,99"},
		{1234.56, "1.234,56"},
		{1234567.8, "1.234.567,80"},
		{-1500, "-1.500,00"},
		{0.005, "0,01"},
		{math.Inf(1), "0,00"},
		{math.Inf(-1), "0,00"},
		{math.NaN(), "0,00"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.out {
			t.Fatalf("FormatAmount(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
	}{
		{"1.234,56", 1234.56},
		{"$ 1.234,56", 1234.56},
		{"  500 ", 500},
		{"0,5", 0.5},
		{"1.000.000", 1000000},
		{"-20,10", -20.10},
		{"", 0},
		{"abc", 0},
		{"1,2,3", 0},
		{"1e400", 0},
		{"1E3", 0},
		{"12-3", 0},
		{"-", 0},
		{strings.Repeat("9", 400), 0},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); math.Abs(got-tc.out) > 1e-9 {
			t.Fatalf("ParseAmount(%q) = %v, want %v", tc.in, got, tc.out)
		}
	}
}

func TestAmountRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.01, 3.14, 99.9, 1234.5, 1234.56, 98765.43, 1000000} {
		got := ParseAmount(FormatAmount(v))
		if math.Abs(got-v) > 0.01 {
			t.Fatalf("round trip of %v gave %v", v, got)
		}
	}
}

func TestMoneyFormatAndParse(t *testing.T) {
	m := Money{Cents: 123456}
	if m.Format() != "1.234,56" {
		t.Fatalf("unexpected format %q", m.Format())
	}
	if got := ParseMoney("1.234,56"); got != m {
		t.Fatalf("ParseMoney = %+v, want %+v", got, m)
	}
	if got := ParseMoney("garbage"); !got.IsZero() {
		t.Fatalf("expected zero for garbage, got %+v", got)
	}
	if got := ParseMoney("19,995"); got.Cents != 2000 {
		t.Fatalf("ParseMoney rounding: got %d", got.Cents)
	}
	if got := ParseMoney(strings.Repeat("9", 25)); !got.IsZero() {
		t.Fatalf("expected zero for an amount beyond int64 cents, got %+v", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 150050})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "1500.50" {
		t.Fatalf("marshal = %s", b)
	}

	var fromNumber, fromText Money
	if err := json.Unmarshal([]byte("1500.5"), &fromNumber); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`"1.500,50"`), &fromText); err != nil {
		t.Fatal(err)
	}
	if fromNumber.Cents != 150050 || fromText.Cents != 150050 {
		t.Fatalf("unmarshal got %d and %d", fromNumber.Cents, fromText.Cents)
	}
	if err := json.Unmarshal([]byte("true"), &fromNumber); err == nil {
		t.Fatalf("expected error for boolean amount")
	}
}

func TestMoneyJSONOutOfRange(t *testing.T) {
	for _, in := range []string{"200000000000000000", "-200000000000000000", "1e400", "9223372036854775807"} {
		var m Money
		err := json.Unmarshal([]byte(in), &m)
		if !IsValidation(err) || !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("unmarshal %s: expected amount validation error, got %v (cents %d)", in, err, m.Cents)
		}
	}

	var small Money
	if err := json.Unmarshal([]byte("1e-9"), &small); err != nil || !small.IsZero() {
		t.Fatalf("tiny amount: got %+v, %v", small, err)
	}
	var big Money
	if err := json.Unmarshal([]byte("1e6"), &big); err != nil || big.Cents != 100000000 {
		t.Fatalf("exponent number: got %+v, %v", big, err)
	}
}

func TestMoneyValidateBounds(t *testing.T) {
	if err := MaxAmount.Validate(); err != nil {
		t.Fatalf("MaxAmount should be valid: %v", err)
	}
	if err := (Money{Cents: MaxAmount.Cents + 1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected amount error above MaxAmount, got %v", err)
	}
}

func TestSplit(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		ratio  SplitRatio
		a, b   int64
	}{
		{"30/70", 100000, SplitRatio{A: 30, B: 70}, 30000, 70000},
		{"even", 100001, SplitRatio{A: 50, B: 50}, 50001, 50000},
		{"remainder to larger B", 100, SplitRatio{A: 33.3, B: 66.7}, 33, 67},
		{"thirds", 100, SplitRatio{A: 1, B: 2}, 33, 67},
		{"zero ratio falls back to even", 1000, SplitRatio{}, 500, 500},
		{"all A", 999, SplitRatio{A: 100, B: 0}, 999, 0},
		{"non-100 sum", 1000, SplitRatio{A: 1, B: 3}, 250, 750},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, b := Split(Money{Cents: tc.amount}, tc.ratio)
			if a.Cents != tc.a || b.Cents != tc.b {
				t.Fatalf("Split = %d/%d, want %d/%d", a.Cents, b.Cents, tc.a, tc.b)
			}
			if a.Cents+b.Cents != tc.amount {
				t.Fatalf("shares do not add up: %d + %d != %d", a.Cents, b.Cents, tc.amount)
			}
		})
	}
}
