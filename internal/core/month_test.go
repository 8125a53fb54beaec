package core

import (
	"testing"
	"time"
)

func TestYearMonthArithmetic(t *testing.T) {
	nov := YearMonth{2024, time.November}
	if got := nov.AddMonths(3).String(); got != "2025-02" {
		t.Fatalf("AddMonths = %s", got)
	}
	if got := nov.AddMonths(-11).String(); got != "2023-12" {
		t.Fatalf("AddMonths negative = %s", got)
	}
	if (YearMonth{2024, time.February}).LastDay() != 29 {
		t.Fatalf("leap february")
	}
	if !nov.Before(nov.AddMonths(1)) || nov.After(nov) {
		t.Fatalf("ordering broken")
	}
}

func TestParseYearMonth(t *testing.T) {
	m, err := ParseYearMonth("2024-03")
	if err != nil || m != (YearMonth{2024, time.March}) {
		t.Fatalf("ParseYearMonth = %v, %v", m, err)
	}
	for _, bad := range []string{"", "2024-13", "03-2024", "2024/03"} {
		if _, err := ParseYearMonth(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestMonthSet(t *testing.T) {
	jan := YearMonth{2024, time.January}
	feb := YearMonth{2024, time.February}

	s := NewMonthSet(feb, jan, feb)
	if len(s) != 2 || s[0] != jan {
		t.Fatalf("set not sorted/unique: %v", s)
	}
	if s.Encode() != "2024-01,2024-02" {
		t.Fatalf("Encode = %q", s.Encode())
	}

	withMar := s.With(YearMonth{2024, time.March})
	if len(s) != 2 || len(withMar) != 3 {
		t.Fatalf("With must not modify the receiver")
	}
	if !withMar.Contains(feb) || s.Contains(YearMonth{2024, time.March}) {
		t.Fatalf("Contains wrong")
	}
}

func TestDecodeMonthSet(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"2024-01,2024-02", "2024-01,2024-02"},
		{"2024-02, 2024-01 ,2024-02", "2024-01,2024-02"},
		{"2024-01,,garbage,2024-3", "2024-01"},
	}
	for _, tc := range cases {
		if got := DecodeMonthSet(tc.raw).Encode(); got != tc.want {
			t.Fatalf("DecodeMonthSet(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
