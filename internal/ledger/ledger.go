// Package ledger defines the persistence ports for installment and fixed
// expenses. Implementations live in internal/storage (SQLite) and
// internal/ledger/memory.
package ledger

import (
	"context"

	"finanzas/internal/core"
)

// Record kinds, used in errors, events and metrics.
const (
	KindInstallment = "installment"
	KindFixed       = "fixed"
)

// Ports for outbound adapters.
type (
	// Reader returns full snapshots or single records. List results are
	// ordered by id.
	Reader interface {
		ListInstallments(ctx context.Context) ([]core.InstallmentExpense, error)
		ListFixed(ctx context.Context) ([]core.FixedExpense, error)
		GetInstallment(ctx context.Context, id int64) (core.InstallmentExpense, error)
		GetFixed(ctx context.Context, id int64) (core.FixedExpense, error)
	}

	// Writer mutates records. Inserts and updates validate the resulting
	// record; deletes of unknown ids succeed.
	Writer interface {
		InsertInstallment(ctx context.Context, e core.InstallmentExpense) (core.InstallmentExpense, error)
		InsertFixed(ctx context.Context, f core.FixedExpense) (core.FixedExpense, error)
		UpdateInstallment(ctx context.Context, id int64, p InstallmentPatch) (core.InstallmentExpense, error)
		UpdateFixed(ctx context.Context, id int64, p FixedPatch) (core.FixedExpense, error)
		DeleteInstallment(ctx context.Context, id int64) error
		DeleteFixed(ctx context.Context, id int64) error
	}

	Store interface {
		Reader
		Writer
		Close() error
	}
)

// InstallmentPatch is a partial update; nil fields are left unchanged.
type InstallmentPatch struct {
	Date              *core.Date
	Description       *string
	Category          *string
	Amount            *core.Money
	Payer             *core.Payer
	PaymentMethod     *string
	InstallmentsTotal *int
	InstallmentsPaid  *int
	SettledMonths     *core.MonthSet
}

// Apply returns e with the patch fields applied.
func (p InstallmentPatch) Apply(e core.InstallmentExpense) core.InstallmentExpense {
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Payer != nil {
		e.Payer = *p.Payer
	}
	if p.PaymentMethod != nil {
		e.PaymentMethod = *p.PaymentMethod
	}
	if p.InstallmentsTotal != nil {
		e.InstallmentsTotal = *p.InstallmentsTotal
	}
	if p.InstallmentsPaid != nil {
		e.InstallmentsPaid = *p.InstallmentsPaid
	}
	if p.SettledMonths != nil {
		e.SettledMonths = *p.SettledMonths
	}
	return e
}

// FixedPatch is a partial update; nil fields are left unchanged.
type FixedPatch struct {
	Description   *string
	Category      *string
	Amount        *core.Money
	Payer         *core.Payer
	Account       *string
	StartDate     *core.Date
	EndDate       *core.Date
	Active        *bool
	Split         *core.SplitRatio
	Overrides     map[core.YearMonth]core.Money
	SettledMonths *core.MonthSet
}

// Apply returns f with the patch fields applied. A non-nil Overrides map
// replaces the stored overrides wholesale.
func (p FixedPatch) Apply(f core.FixedExpense) core.FixedExpense {
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Amount != nil {
		f.Amount = *p.Amount
	}
	if p.Payer != nil {
		f.Payer = *p.Payer
	}
	if p.Account != nil {
		f.Account = *p.Account
	}
	if p.StartDate != nil {
		f.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		f.EndDate = *p.EndDate
	}
	if p.Active != nil {
		f.Active = *p.Active
	}
	if p.Split != nil {
		f.Split = *p.Split
		if f.Split.IsWeightless() {
			f.Split = core.DefaultSplit
		}
	}
	if p.Overrides != nil {
		f.Overrides = p.Overrides
	}
	if p.SettledMonths != nil {
		f.SettledMonths = *p.SettledMonths
	}
	return f
}

// PrepareInstallment normalises a record for insertion: the paid count and
// settled months start empty.
func PrepareInstallment(e core.InstallmentExpense) (core.InstallmentExpense, error) {
	e.ID = 0
	e.InstallmentsPaid = 0
	e.SettledMonths = nil
	if err := e.Validate(); err != nil {
		return e, err
	}
	return e, nil
}

// PrepareFixed normalises a record for insertion: a weightless split becomes
// 50/50 and settled months start empty.
func PrepareFixed(f core.FixedExpense) (core.FixedExpense, error) {
	f.ID = 0
	f.SettledMonths = nil
	if f.Split.IsWeightless() {
		f.Split = core.DefaultSplit
	}
	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}
