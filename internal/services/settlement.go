package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/metrics"
)

// SettlementResult describes one run of the monthly settlement.
type SettlementResult struct {
	Month core.YearMonth `json:"month"`
	// Closed is false when the run happened before the closing day and
	// therefore changed nothing.
	Closed       bool    `json:"closed"`
	Installments []int64 `json:"installments"`
	Fixed        []int64 `json:"fixed"`
}

// Count is the number of records advanced by the run.
func (r SettlementResult) Count() int {
	return len(r.Installments) + len(r.Fixed)
}

// Settler advances the ledger when a billing cycle closes.
type Settler struct {
	store     ledger.Store
	publisher EventPublisher
	metrics   *metrics.Metrics
}

func NewSettler(store ledger.Store, publisher EventPublisher, m *metrics.Metrics) *Settler {
	return &Settler{store: store, publisher: publisher, metrics: m}
}

// SettleCurrentMonth marks today's month as paid once its closing day is
// reached. Each unfinished installment not yet settled for the month gets
// one more paid installment; each fixed expense active in the month gets
// the month recorded. Records already carrying the month token are skipped,
// so repeated runs in the same month change nothing.
//
// The first storage error stops the run; records settled before it stay
// settled and are listed in the returned result.
func (s *Settler) SettleCurrentMonth(ctx context.Context, today time.Time, closingDay int) (SettlementResult, error) {
	if err := validateClosingDay(closingDay); err != nil {
		return SettlementResult{}, err
	}

	month := core.MonthOf(today)
	res := SettlementResult{Month: month, Installments: []int64{}, Fixed: []int64{}}
	if !IsClosed(today, closingDay) {
		slog.DebugContext(ctx, "Billing cycle still open, nothing to settle",
			"month", month.String(),
			"day", today.Day(),
			"closing_day", ClosingDayIn(month, closingDay))
		return res, nil
	}
	res.Closed = true

	installments, err := s.store.ListInstallments(ctx)
	if err != nil {
		return res, fmt.Errorf("list installments: %w", err)
	}
	for _, e := range installments {
		if e.Finished() || e.SettledMonths.Contains(month) {
			continue
		}
		paid := e.InstallmentsPaid + 1
		months := e.SettledMonths.With(month)
		_, err := s.store.UpdateInstallment(ctx, e.ID, ledger.InstallmentPatch{
			InstallmentsPaid: &paid,
			SettledMonths:    &months,
		})
		if core.IsNotFound(err) {
			continue
		}
		if err != nil {
			s.finish(ctx, res)
			return res, fmt.Errorf("settle installment %d: %w", e.ID, err)
		}
		res.Installments = append(res.Installments, e.ID)
	}

	fixed, err := s.store.ListFixed(ctx)
	if err != nil {
		s.finish(ctx, res)
		return res, fmt.Errorf("list fixed expenses: %w", err)
	}
	for _, f := range fixed {
		if !f.ActiveIn(month) || f.SettledMonths.Contains(month) {
			continue
		}
		months := f.SettledMonths.With(month)
		_, err := s.store.UpdateFixed(ctx, f.ID, ledger.FixedPatch{SettledMonths: &months})
		if core.IsNotFound(err) {
			continue
		}
		if err != nil {
			s.finish(ctx, res)
			return res, fmt.Errorf("settle fixed expense %d: %w", f.ID, err)
		}
		res.Fixed = append(res.Fixed, f.ID)
	}

	s.finish(ctx, res)
	return res, nil
}

func (s *Settler) finish(ctx context.Context, res SettlementResult) {
	s.metrics.AddSettled(ledger.KindInstallment, len(res.Installments))
	s.metrics.AddSettled(ledger.KindFixed, len(res.Fixed))

	slog.InfoContext(ctx, "Month settled",
		"month", res.Month.String(),
		"installments", len(res.Installments),
		"fixed", len(res.Fixed))

	if res.Count() > 0 {
		publish(ctx, s.publisher, s.metrics, amqp.NewSettlementEvent(res.Month.String(), res.Count()))
	}
}

// AutoCloseProcessor runs the settlement with the configured closing day.
// It is the unit of work of the auto-close loop.
type AutoCloseProcessor struct {
	settler    *Settler
	closingDay int
}

func NewAutoCloseProcessor(settler *Settler, closingDay int) *AutoCloseProcessor {
	return &AutoCloseProcessor{settler: settler, closingDay: closingDay}
}

// ProcessDue settles now's month if its billing cycle has closed.
func (p *AutoCloseProcessor) ProcessDue(ctx context.Context, now time.Time) (SettlementResult, error) {
	if p.settler == nil {
		return SettlementResult{}, fmt.Errorf("processor not properly initialized")
	}
	return p.settler.SettleCurrentMonth(ctx, now, p.closingDay)
}
