package sheets

import (
	"context"
	"time"

	"finanzas/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerMirror keeps an append-only log of ledger activity in a
	// spreadsheet. Each call appends one row and returns its range reference.
	LedgerMirror interface {
		AppendInstallment(ctx context.Context, e core.InstallmentExpense, at time.Time) (rowRef string, err error)
		AppendFixed(ctx context.Context, f core.FixedExpense, at time.Time) (rowRef string, err error)
		AppendSettlement(ctx context.Context, s Settlement) (rowRef string, err error)
	}
)

// Settlement is the row written when a billing cycle is closed.
type Settlement struct {
	Month   core.YearMonth
	Records int
	At      time.Time
}
