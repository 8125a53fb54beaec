package core

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const yearMonthLayout = "2006-01"

// YearMonth identifies a calendar month. Its text form "YYYY-MM" is the
// settlement token stored in settled-month sets and override keys.
type YearMonth struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// NewYearMonth normalises out-of-range months (13 becomes January of the next year).
func NewYearMonth(year int, month time.Month) YearMonth {
	return MonthOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}

// ParseYearMonth parses a "YYYY-MM" token.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(yearMonthLayout, strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// FirstDay returns midnight UTC of the first day of the month.
func (m YearMonth) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns the number of days in the month.
func (m YearMonth) LastDay() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (m YearMonth) AddMonths(n int) YearMonth {
	return NewYearMonth(m.Year, m.Month+time.Month(n))
}

// Compare returns -1, 0 or +1.
// MonthsUntil returns the number of months from m to o, negative when o is
// earlier.
func (m YearMonth) MonthsUntil(o YearMonth) int {
	return (o.Year-m.Year)*12 + int(o.Month) - int(m.Month)
}

func (m YearMonth) Compare(o YearMonth) int {
	switch {
	case m.Year < o.Year:
		return -1
	case m.Year > o.Year:
		return 1
	case m.Month < o.Month:
		return -1
	case m.Month > o.Month:
		return 1
	}
	return 0
}

func (m YearMonth) Before(o YearMonth) bool { return m.Compare(o) < 0 }
func (m YearMonth) After(o YearMonth) bool  { return m.Compare(o) > 0 }

func (m YearMonth) IsZero() bool { return m.Year == 0 && m.Month == 0 }

func (m YearMonth) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *YearMonth) UnmarshalText(b []byte) error {
	ym, err := ParseYearMonth(string(b))
	if err != nil {
		return err
	}
	*m = ym
	return nil
}

const monthSetSeparator = ","

// MonthSet is a sorted, duplicate-free set of months.
type MonthSet []YearMonth

// NewMonthSet builds a set from arbitrary months.
func NewMonthSet(months ...YearMonth) MonthSet {
	var s MonthSet
	for _, m := range months {
		s = s.With(m)
	}
	return s
}

func (s MonthSet) Contains(m YearMonth) bool {
	_, found := slices.BinarySearchFunc(s, m, YearMonth.Compare)
	return found
}

// With returns a copy of s that also contains m.
func (s MonthSet) With(m YearMonth) MonthSet {
	i, found := slices.BinarySearchFunc(s, m, YearMonth.Compare)
	if found {
		return slices.Clone(s)
	}
	out := make(MonthSet, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, m)
	return append(out, s[i:]...)
}

// Encode renders the persisted form, e.g. "2024-01,2024-02".
func (s MonthSet) Encode() string {
	parts := make([]string, len(s))
	for i, m := range s {
		parts[i] = m.String()
	}
	return strings.Join(parts, monthSetSeparator)
}

// DecodeMonthSet parses the persisted form. Blank and malformed tokens are
// skipped, so a damaged column never blocks reading the record.
func DecodeMonthSet(raw string) MonthSet {
	var s MonthSet
	for _, tok := range strings.Split(raw, monthSetSeparator) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		m, err := ParseYearMonth(tok)
		if err != nil {
			continue
		}
		s = s.With(m)
	}
	return s
}
