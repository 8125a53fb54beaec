package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/metrics"
	"finanzas/internal/sheets"
)

// SheetsSync mirrors ledger events into the spreadsheet.
type SheetsSync struct {
	store   ledger.Reader
	mirror  sheets.LedgerMirror
	metrics *metrics.Metrics
}

func NewSheetsSync(store ledger.Reader, mirror sheets.LedgerMirror, m *metrics.Metrics) *SheetsSync {
	return &SheetsSync{store: store, mirror: mirror, metrics: m}
}

// HandleLedgerEvent processes one event from AMQP. Returning an error asks
// the broker to redeliver it.
func (w *SheetsSync) HandleLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"event_id", event.ID,
		"type", event.Type,
		"record_id", event.RecordID)

	err := w.handle(ctx, event)
	w.metrics.EventHandled(event.Type, err)
	return err
}

func (w *SheetsSync) handle(ctx context.Context, event *amqp.LedgerEvent) error {
	at := event.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	switch event.Type {
	case amqp.InstallmentCreated, amqp.InstallmentUpdated:
		e, err := w.store.GetInstallment(ctx, event.RecordID)
		if core.IsNotFound(err) {
			slog.WarnContext(ctx, "Installment gone before sync, skipping", "record_id", event.RecordID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get installment from storage: %w", err)
		}
		ref, err := w.mirror.AppendInstallment(ctx, e, at)
		if err != nil {
			return fmt.Errorf("append installment to sheets: %w", err)
		}
		slog.InfoContext(ctx, "Successfully synced installment", "record_id", e.ID, "sheets_ref", ref)

	case amqp.FixedCreated, amqp.FixedUpdated:
		f, err := w.store.GetFixed(ctx, event.RecordID)
		if core.IsNotFound(err) {
			slog.WarnContext(ctx, "Fixed expense gone before sync, skipping", "record_id", event.RecordID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get fixed expense from storage: %w", err)
		}
		ref, err := w.mirror.AppendFixed(ctx, f, at)
		if err != nil {
			return fmt.Errorf("append fixed expense to sheets: %w", err)
		}
		slog.InfoContext(ctx, "Successfully synced fixed expense", "record_id", f.ID, "sheets_ref", ref)

	case amqp.InstallmentDeleted, amqp.FixedDeleted:
		// the sheet is an append-only log
		slog.InfoContext(ctx, "Deletion not mirrored", "type", event.Type, "record_id", event.RecordID)

	case amqp.MonthSettled:
		month, err := core.ParseYearMonth(event.Month)
		if err != nil {
			slog.WarnContext(ctx, "Dropping settlement event with bad month", "month", event.Month, "error", err)
			return nil
		}
		ref, err := w.mirror.AppendSettlement(ctx, sheets.Settlement{Month: month, Records: event.Count, At: at})
		if err != nil {
			return fmt.Errorf("append settlement to sheets: %w", err)
		}
		slog.InfoContext(ctx, "Successfully synced settlement", "month", month.String(), "sheets_ref", ref)

	default:
		slog.WarnContext(ctx, "Unknown ledger event type, skipping", "type", event.Type)
	}
	return nil
}
