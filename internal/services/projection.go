package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/metrics"
)

// Project computes per-person totals for horizon consecutive months starting
// at BillingStart(asOf, closingDay).
//
// Month i (0-based) receives every fixed expense active in that month, at
// its override amount when one exists, and every installment with i below
// its remaining count. Shared amounts are split with core.Split. Records are
// visited in id order so results are reproducible.
func Project(installments []core.InstallmentExpense, fixed []core.FixedExpense, asOf time.Time, closingDay, horizon int) ([]core.MonthTotal, error) {
	if err := validateClosingDay(closingDay); err != nil {
		return nil, err
	}
	if err := validateHorizon(horizon); err != nil {
		return nil, err
	}

	installments = slices.SortedFunc(slices.Values(installments), func(a, b core.InstallmentExpense) int { return cmp.Compare(a.ID, b.ID) })
	fixed = slices.SortedFunc(slices.Values(fixed), func(a, b core.FixedExpense) int { return cmp.Compare(a.ID, b.ID) })

	start := BillingStart(asOf, closingDay)
	out := make([]core.MonthTotal, horizon)
	for i := range out {
		month := start.AddMonths(i)
		total := core.MonthTotal{Month: month}

		for _, f := range fixed {
			if f.ActiveIn(month) {
				total.Add(f.AmountFor(month), f.Payer, f.Split)
			}
		}
		for _, e := range installments {
			if i < e.Remaining() {
				total.Add(e.Amount, e.Payer, core.DefaultSplit)
			}
		}
		out[i] = total
	}
	return out, nil
}

// Projector runs projections over the current store snapshot. Nothing is
// cached: every call reads the store again.
type Projector struct {
	store   ledger.Reader
	metrics *metrics.Metrics
}

func NewProjector(store ledger.Reader, m *metrics.Metrics) *Projector {
	return &Projector{store: store, metrics: m}
}

// Snapshot reads every installment and fixed expense.
func (p *Projector) Snapshot(ctx context.Context) ([]core.InstallmentExpense, []core.FixedExpense, error) {
	installments, err := p.store.ListInstallments(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list installments: %w", err)
	}
	fixed, err := p.store.ListFixed(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list fixed expenses: %w", err)
	}
	return installments, fixed, nil
}

func (p *Projector) ProjectMonths(ctx context.Context, asOf time.Time, closingDay, horizon int) ([]core.MonthTotal, error) {
	start := time.Now()
	defer func() { p.metrics.ObserveProjection(time.Since(start)) }()

	installments, fixed, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	months, err := Project(installments, fixed, asOf, closingDay, horizon)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Projection computed",
		"as_of", asOf.Format("2006-01-02"),
		"closing_day", closingDay,
		"horizon", horizon,
		"installments", len(installments),
		"fixed", len(fixed))

	return months, nil
}
