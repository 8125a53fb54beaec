package services

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/metrics"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// publish never fails the caller: the write it reports is already stored.
func publish(ctx context.Context, p EventPublisher, m *metrics.Metrics, event *amqp.LedgerEvent) {
	if p == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping ledger event", "type", event.Type)
		return
	}
	err := p.PublishLedgerEvent(ctx, event)
	m.EventPublished(event.Type, err)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", event.Type,
			"record_id", event.RecordID,
			"error", err)
	}
}

// LedgerService orchestrates ledger writes across the store and AMQP.
// A nil publisher disables events.
type LedgerService struct {
	store     ledger.Store
	publisher EventPublisher
	metrics   *metrics.Metrics
}

func NewLedgerService(store ledger.Store, publisher EventPublisher, m *metrics.Metrics) *LedgerService {
	return &LedgerService{store: store, publisher: publisher, metrics: m}
}

func (s *LedgerService) Store() ledger.Store { return s.store }

func (s *LedgerService) ListInstallments(ctx context.Context) ([]core.InstallmentExpense, error) {
	return s.store.ListInstallments(ctx)
}

func (s *LedgerService) ListFixed(ctx context.Context) ([]core.FixedExpense, error) {
	return s.store.ListFixed(ctx)
}

func (s *LedgerService) GetInstallment(ctx context.Context, id int64) (core.InstallmentExpense, error) {
	return s.store.GetInstallment(ctx, id)
}

func (s *LedgerService) GetFixed(ctx context.Context, id int64) (core.FixedExpense, error) {
	return s.store.GetFixed(ctx, id)
}

func (s *LedgerService) CreateInstallment(ctx context.Context, e core.InstallmentExpense) (core.InstallmentExpense, error) {
	created, err := s.store.InsertInstallment(ctx, e)
	if err != nil {
		return core.InstallmentExpense{}, fmt.Errorf("save installment: %w", err)
	}
	publish(ctx, s.publisher, s.metrics, amqp.NewRecordEvent(amqp.InstallmentCreated, created.ID))
	return created, nil
}

func (s *LedgerService) UpdateInstallment(ctx context.Context, id int64, p ledger.InstallmentPatch) (core.InstallmentExpense, error) {
	updated, err := s.store.UpdateInstallment(ctx, id, p)
	if err != nil {
		return core.InstallmentExpense{}, fmt.Errorf("update installment: %w", err)
	}
	publish(ctx, s.publisher, s.metrics, amqp.NewRecordEvent(amqp.InstallmentUpdated, id))
	return updated, nil
}

func (s *LedgerService) DeleteInstallment(ctx context.Context, id int64) error {
	if err := s.store.DeleteInstallment(ctx, id); err != nil {
		return fmt.Errorf("delete installment: %w", err)
	}
	publish(ctx, s.publisher, s.metrics, amqp.NewRecordEvent(amqp.InstallmentDeleted, id))
	return nil
}

func (s *LedgerService) CreateFixed(ctx context.Context, f core.FixedExpense) (core.FixedExpense, error) {
	created, err := s.store.InsertFixed(ctx, f)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("save fixed expense: %w", err)
	}
	publish(ctx, s.publisher, s.metrics, amqp.NewRecordEvent(amqp.FixedCreated, created.ID))
	return created, nil
}

func (s *LedgerService) UpdateFixed(ctx context.Context, id int64, p ledger.FixedPatch) (core.FixedExpense, error) {
	updated, err := s.store.UpdateFixed(ctx, id, p)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("update fixed expense: %w", err)
	}
	publish(ctx, s.publisher, s.metrics, amqp.NewRecordEvent(amqp.FixedUpdated, id))
	return updated, nil
}

func (s *LedgerService) DeleteFixed(ctx context.Context, id int64) error {
	if err := s.store.DeleteFixed(ctx, id); err != nil {
		return fmt.Errorf("delete fixed expense: %w", err)
	}
	publish(ctx, s.publisher, s.metrics, amqp.NewRecordEvent(amqp.FixedDeleted, id))
	return nil
}

// SetOverride replaces the amount of a fixed expense for one month.
func (s *LedgerService) SetOverride(ctx context.Context, id int64, month core.YearMonth, amount core.Money) (core.FixedExpense, error) {
	if amount.Cents < 0 {
		return core.FixedExpense{}, core.Invalid("amount", core.ErrInvalidAmount)
	}
	f, err := s.store.GetFixed(ctx, id)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("get fixed expense: %w", err)
	}
	overrides := maps.Clone(f.Overrides)
	if overrides == nil {
		overrides = make(map[core.YearMonth]core.Money)
	}
	overrides[month] = amount
	return s.UpdateFixed(ctx, id, ledger.FixedPatch{Overrides: overrides})
}

// ClearOverride removes the override of one month. Clearing a month without
// an override is a no-op.
func (s *LedgerService) ClearOverride(ctx context.Context, id int64, month core.YearMonth) (core.FixedExpense, error) {
	f, err := s.store.GetFixed(ctx, id)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("get fixed expense: %w", err)
	}
	if _, ok := f.Overrides[month]; !ok {
		return f, nil
	}
	overrides := maps.Clone(f.Overrides)
	delete(overrides, month)
	return s.UpdateFixed(ctx, id, ledger.FixedPatch{Overrides: overrides})
}

// Close closes the store and the AMQP connection when it has one.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if closer, ok := s.publisher.(interface{ Close() error }); ok && closer != nil {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
