package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"finanzas/internal/core"
)

// SummarizeProjection totals a projection and averages it per month.
// Averages are truncated to whole cents.
func SummarizeProjection(months []core.MonthTotal) core.ProjectionSummary {
	s := core.ProjectionSummary{Months: len(months)}
	for _, m := range months {
		s.TotalA = s.TotalA.Add(m.PersonA)
		s.TotalB = s.TotalB.Add(m.PersonB)
		s.Total = s.Total.Add(m.Total)
	}
	if n := int64(len(months)); n > 0 {
		s.AverageA = core.Money{Cents: s.TotalA.Cents / n}
		s.AverageB = core.Money{Cents: s.TotalB.Cents / n}
		s.Average = core.Money{Cents: s.Total.Cents / n}
	}
	return s
}

const unassigned = "Sin asignar"

func groupName(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return unassigned
	}
	return s
}

// installmentDueIn reports whether e charges month when its next unpaid
// installment falls on start. It matches the month assignment of Project.
func installmentDueIn(e core.InstallmentExpense, start, month core.YearMonth) bool {
	offset := start.MonthsUntil(month)
	return offset >= 0 && offset < e.Remaining()
}

// BalancesByMethod groups obligations by installment payment method and
// fixed-expense account. start is the current billing start. DueThisMonth
// counts installments still charging month and fixed expenses active in
// month; Outstanding is the installment debt still to be paid.
func BalancesByMethod(installments []core.InstallmentExpense, fixed []core.FixedExpense, start, month core.YearMonth) []core.MethodBalance {
	byMethod := map[string]*core.MethodBalance{}
	get := func(name string) *core.MethodBalance {
		name = groupName(name)
		b, ok := byMethod[name]
		if !ok {
			b = &core.MethodBalance{Method: name}
			byMethod[name] = b
		}
		return b
	}

	for _, e := range installments {
		if e.Finished() {
			continue
		}
		b := get(e.PaymentMethod)
		b.Installments++
		if installmentDueIn(e, start, month) {
			b.DueThisMonth = b.DueThisMonth.Add(e.Amount)
		}
		b.Outstanding = b.Outstanding.Add(e.Amount.Mul(int64(e.Remaining())))
	}
	for _, f := range fixed {
		if !f.ActiveIn(month) {
			continue
		}
		b := get(f.Account)
		b.Fixed++
		b.DueThisMonth = b.DueThisMonth.Add(f.AmountFor(month))
	}

	out := make([]core.MethodBalance, 0, len(byMethod))
	for _, b := range byMethod {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b core.MethodBalance) int { return strings.Compare(a.Method, b.Method) })
	return out
}

// CategoryTotals returns the amount due in month per category, sorted by name.
// start is the current billing start.
func CategoryTotals(installments []core.InstallmentExpense, fixed []core.FixedExpense, start, month core.YearMonth) []core.CategoryAmount {
	totals := map[string]core.Money{}
	for _, e := range installments {
		if installmentDueIn(e, start, month) {
			name := groupName(e.Category)
			totals[name] = totals[name].Add(e.Amount)
		}
	}
	for _, f := range fixed {
		if f.ActiveIn(month) {
			name := groupName(f.Category)
			totals[name] = totals[name].Add(f.AmountFor(month))
		}
	}

	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	slices.SortFunc(out, func(a, b core.CategoryAmount) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Balances is the report served for one month.
type Balances struct {
	Month      core.YearMonth        `json:"month"`
	ByMethod   []core.MethodBalance  `json:"by_method"`
	ByCategory []core.CategoryAmount `json:"by_category"`
}

// BalancesFor builds the month report from the current store snapshot.
// Installments are placed in months the same way Project places them from
// asOf and closingDay.
func (p *Projector) BalancesFor(ctx context.Context, asOf time.Time, closingDay int, month core.YearMonth) (Balances, error) {
	if err := validateClosingDay(closingDay); err != nil {
		return Balances{}, err
	}
	installments, fixed, err := p.Snapshot(ctx)
	if err != nil {
		return Balances{}, fmt.Errorf("balances snapshot: %w", err)
	}
	start := BillingStart(asOf, closingDay)
	return Balances{
		Month:      month,
		ByMethod:   BalancesByMethod(installments, fixed, start, month),
		ByCategory: CategoryTotals(installments, fixed, start, month),
	}, nil
}

// Report is a projection together with its summary.
type Report struct {
	AsOf       string                 `json:"as_of"`
	ClosingDay int                    `json:"closing_day"`
	Months     []core.MonthTotal      `json:"months"`
	Summary    core.ProjectionSummary `json:"summary"`
}

func (p *Projector) Report(ctx context.Context, asOf time.Time, closingDay, horizon int) (Report, error) {
	months, err := p.ProjectMonths(ctx, asOf, closingDay, horizon)
	if err != nil {
		return Report{}, err
	}
	return Report{
		AsOf:       asOf.Format("2006-01-02"),
		ClosingDay: closingDay,
		Months:     months,
		Summary:    SummarizeProjection(months),
	}, nil
}
