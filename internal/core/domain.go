package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

const (
	PayerA    Payer = "A"
	PayerB    Payer = "B"
	PayerBoth Payer = "both"
)

const dateLayout = "2006-01-02"

const maxDescriptionLen = 200

type (
	// Payer says who pays a record: one of the two persons or both of them.
	Payer string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// SplitRatio holds the percentages of a shared fixed expense borne by A and B.
	SplitRatio struct {
		A float64 `json:"A"`
		B float64 `json:"B"`
	}

	// InstallmentExpense is a purchase paid in equal monthly installments.
	// Amount is the value of a single installment.
	InstallmentExpense struct {
		ID                int64    `json:"id"`
		Date              Date     `json:"date"`
		Description       string   `json:"description"`
		Category          string   `json:"category,omitempty"`
		Amount            Money    `json:"amount"`
		Payer             Payer    `json:"payer"`
		PaymentMethod     string   `json:"payment_method"`
		InstallmentsTotal int      `json:"installments_total"`
		InstallmentsPaid  int      `json:"installments_paid"`
		SettledMonths     MonthSet `json:"settled_months"`
	}

	// FixedExpense is a monthly recurring obligation.
	FixedExpense struct {
		ID            int64               `json:"id"`
		Description   string              `json:"description"`
		Category      string              `json:"category,omitempty"`
		Amount        Money               `json:"amount"`
		Payer         Payer               `json:"payer"`
		Account       string              `json:"account"`
		StartDate     Date                `json:"start_date"`
		EndDate       Date                `json:"end_date"`
		Active        bool                `json:"active"`
		Split         SplitRatio          `json:"split"`
		Overrides     map[YearMonth]Money `json:"overrides,omitempty"`
		SettledMonths MonthSet            `json:"settled_months"`
	}
)

// DefaultSplit is the 50/50 ratio applied when none is given.
var DefaultSplit = SplitRatio{A: 50, B: 50}

// ParsePayer accepts the canonical tokens case-insensitively plus a few
// aliases ("ambos", "ambas").
func ParsePayer(s string) (Payer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a":
		return PayerA, nil
	case "b":
		return PayerB, nil
	case "both", "ambos", "ambas":
		return PayerBoth, nil
	}
	return "", Invalid("payer", ErrInvalidPayer)
}

func (p Payer) IsValid() bool {
	switch p {
	case PayerA, PayerB, PayerBoth:
		return true
	}
	return false
}

func (p Payer) String() string { return string(p) }

// Normalized returns the default ratio when r carries no weight.
func (r SplitRatio) Normalized() SplitRatio {
	if r.A < 0 || r.B < 0 || r.A+r.B <= 0 {
		return DefaultSplit
	}
	return r
}

// Validate requires both percentages in [0,100] adding up to 100.
func (r SplitRatio) Validate() error {
	if r.A < 0 || r.A > 100 || r.B < 0 || r.B > 100 {
		return Invalid("split", ErrInvalidRatio)
	}
	if math.Abs(r.A+r.B-100) > 1e-9 {
		return Invalid("split", ErrInvalidRatio)
	}
	return nil
}

// IsWeightless reports whether r carries no weight and stands for the default.
func (r SplitRatio) IsWeightless() bool { return r.A == 0 && r.B == 0 }

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDay
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "YYYY-MM-DD". An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MaxAmount bounds a single record amount so projected totals stay within int64.
var MaxAmount = Money{Cents: 100_000_000_000_000}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxAmount.Cents {
		return ErrInvalidAmount
	}
	return nil
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return Invalid("description", ErrEmptyDescription)
	}
	if len(desc) > maxDescriptionLen {
		return Invalid("description", ErrDescriptionTooLong)
	}
	return nil
}

// Remaining is the number of installments still to be paid.
func (e InstallmentExpense) Remaining() int {
	if r := e.InstallmentsTotal - e.InstallmentsPaid; r > 0 {
		return r
	}
	return 0
}

func (e InstallmentExpense) Finished() bool {
	return e.Remaining() == 0
}

func (e InstallmentExpense) Validate() error {
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if e.Payer != PayerA && e.Payer != PayerB {
		return Invalid("payer", ErrInvalidPayer)
	}
	if e.InstallmentsTotal < 1 {
		return Invalid("installments_total", ErrInvalidInstallments)
	}
	if e.InstallmentsPaid < 0 || e.InstallmentsPaid > e.InstallmentsTotal {
		return Invalid("installments_paid", ErrInvalidInstallments)
	}
	if !e.Date.IsEmpty() {
		if err := e.Date.Validate(); err != nil {
			return Invalid("date", err)
		}
	}
	return nil
}

// AmountFor returns the override for month if one exists, else the base amount.
func (f FixedExpense) AmountFor(month YearMonth) Money {
	if v, ok := f.Overrides[month]; ok {
		return v
	}
	return f.Amount
}

// ActiveIn reports whether the expense applies to month: the active flag is
// set and month lies inside the optional start/end window.
func (f FixedExpense) ActiveIn(month YearMonth) bool {
	if !f.Active {
		return false
	}
	if !f.StartDate.IsEmpty() && month.Before(MonthOf(f.StartDate.Time)) {
		return false
	}
	if !f.EndDate.IsEmpty() && month.After(MonthOf(f.EndDate.Time)) {
		return false
	}
	return true
}

func (f FixedExpense) Validate() error {
	if err := validateDescription(f.Description); err != nil {
		return err
	}
	if err := f.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if !f.Payer.IsValid() {
		return Invalid("payer", ErrInvalidPayer)
	}
	if err := f.Split.Validate(); err != nil {
		return err
	}
	if !f.StartDate.IsEmpty() && !f.EndDate.IsEmpty() && f.EndDate.Before(f.StartDate.Time) {
		return Invalid("end_date", ErrInvalidDateRange)
	}
	for m, v := range f.Overrides {
		if v.Cents < 0 || v.Cents > MaxAmount.Cents {
			return Invalid("overrides."+m.String(), ErrInvalidAmount)
		}
	}
	return nil
}
