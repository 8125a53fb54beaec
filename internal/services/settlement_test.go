package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/ledger/ledgertest"
	"finanzas/internal/ledger/memory"
	"finanzas/internal/metrics"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *fakePublisher) PublishLedgerEvent(_ context.Context, e *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// failingStore fails updates of one installment id.
type failingStore struct {
	*memory.Store
	failID int64
}

func (s *failingStore) UpdateInstallment(ctx context.Context, id int64, p ledger.InstallmentPatch) (core.InstallmentExpense, error) {
	if id == s.failID {
		return core.InstallmentExpense{}, &core.StorageError{Op: "update installment", Err: errors.New("disk I/O error")}
	}
	return s.Store.UpdateInstallment(ctx, id, p)
}

type settlementFixture struct {
	store     *memory.Store
	running   core.InstallmentExpense
	finished  core.InstallmentExpense
	active    core.FixedExpense
	inactive  core.FixedExpense
	publisher *fakePublisher
}

func newSettlementFixture(t *testing.T) settlementFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	running, err := store.InsertInstallment(ctx, ledgertest.Installment("TV", 10000, core.PayerA, 6))
	if err != nil {
		t.Fatal(err)
	}
	finished, _ := store.InsertInstallment(ctx, ledgertest.Installment("Silla", 2000, core.PayerB, 1))
	one := 1
	if _, err := store.UpdateInstallment(ctx, finished.ID, ledger.InstallmentPatch{InstallmentsPaid: &one}); err != nil {
		t.Fatal(err)
	}
	active, _ := store.InsertFixed(ctx, ledgertest.Fixed("Alquiler", 50000, core.PayerBoth))
	inactive := ledgertest.Fixed("Gym", 3000, core.PayerB)
	inactive.Active = false
	inactive, _ = store.InsertFixed(ctx, inactive)

	return settlementFixture{
		store:     store,
		running:   running,
		finished:  finished,
		active:    active,
		inactive:  inactive,
		publisher: &fakePublisher{},
	}
}

func TestSettleBeforeClosingDayIsNoop(t *testing.T) {
	fx := newSettlementFixture(t)
	s := NewSettler(fx.store, fx.publisher, nil)

	res, err := s.SettleCurrentMonth(context.Background(), day(2024, time.March, 9), 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Closed || res.Count() != 0 {
		t.Fatalf("expected no-op, got %+v", res)
	}
	e, _ := fx.store.GetInstallment(context.Background(), fx.running.ID)
	if e.InstallmentsPaid != 0 || len(e.SettledMonths) != 0 {
		t.Fatalf("installment changed before closing day: %+v", e)
	}
	if len(fx.publisher.types()) != 0 {
		t.Fatalf("no event expected")
	}
}

func TestSettleAdvancesOnceAndIsIdempotent(t *testing.T) {
	fx := newSettlementFixture(t)
	m := metrics.New()
	s := NewSettler(fx.store, fx.publisher, m)
	ctx := context.Background()
	mar := core.YearMonth{Year: 2024, Month: time.March}

	res, err := s.SettleCurrentMonth(ctx, day(2024, time.March, 10), 10)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Closed || res.Month != mar {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Installments) != 1 || res.Installments[0] != fx.running.ID {
		t.Fatalf("expected only the running installment, got %v", res.Installments)
	}
	if len(res.Fixed) != 1 || res.Fixed[0] != fx.active.ID {
		t.Fatalf("expected only the active fixed expense, got %v", res.Fixed)
	}

	e, _ := fx.store.GetInstallment(ctx, fx.running.ID)
	if e.InstallmentsPaid != 1 || !e.SettledMonths.Contains(mar) {
		t.Fatalf("installment not advanced: %+v", e)
	}
	f, _ := fx.store.GetFixed(ctx, fx.active.ID)
	if !f.SettledMonths.Contains(mar) {
		t.Fatalf("fixed expense not marked: %+v", f)
	}
	in, _ := fx.store.GetFixed(ctx, fx.inactive.ID)
	if len(in.SettledMonths) != 0 {
		t.Fatalf("inactive fixed expense must not be marked")
	}

	// second run later in the same month changes nothing
	again, err := s.SettleCurrentMonth(ctx, day(2024, time.March, 28), 10)
	if err != nil {
		t.Fatal(err)
	}
	if again.Count() != 0 {
		t.Fatalf("second run settled records: %+v", again)
	}
	e, _ = fx.store.GetInstallment(ctx, fx.running.ID)
	if e.InstallmentsPaid != 1 {
		t.Fatalf("installment advanced twice: %d", e.InstallmentsPaid)
	}

	got := fx.publisher.types()
	if len(got) != 1 || got[0] != amqp.MonthSettled {
		t.Fatalf("expected a single month.settled event, got %v", got)
	}
	if ev := fx.publisher.events[0]; ev.Month != "2024-03" || ev.Count != 2 {
		t.Fatalf("unexpected settlement event %+v", ev)
	}
}

func TestSettleFollowingMonths(t *testing.T) {
	fx := newSettlementFixture(t)
	s := NewSettler(fx.store, nil, nil)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		today := day(2024, time.Month(1+i), 15)
		if _, err := s.SettleCurrentMonth(ctx, today, 10); err != nil {
			t.Fatalf("month %d: %v", i, err)
		}
	}
	e, _ := fx.store.GetInstallment(ctx, fx.running.ID)
	if e.InstallmentsPaid != 6 || len(e.SettledMonths) != 6 {
		t.Fatalf("expected 6 settled installments, got paid=%d months=%v", e.InstallmentsPaid, e.SettledMonths)
	}
	f, _ := fx.store.GetFixed(ctx, fx.active.ID)
	if len(f.SettledMonths) != 8 {
		t.Fatalf("expected 8 settled months for fixed, got %v", f.SettledMonths)
	}
}

func TestSettleStopsAtFirstStorageError(t *testing.T) {
	fx := newSettlementFixture(t)
	ctx := context.Background()
	second, _ := fx.store.InsertInstallment(ctx, ledgertest.Installment("Heladera", 5000, core.PayerB, 4))

	store := &failingStore{Store: fx.store, failID: second.ID}
	s := NewSettler(store, fx.publisher, nil)

	res, err := s.SettleCurrentMonth(ctx, day(2024, time.March, 12), 10)
	if !core.IsStorage(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(res.Installments) != 1 || res.Installments[0] != fx.running.ID {
		t.Fatalf("expected partial result with the first installment, got %+v", res)
	}
	if len(res.Fixed) != 0 {
		t.Fatalf("fixed expenses must not be processed after the failure")
	}

	// the record settled before the failure stays settled
	e, _ := fx.store.GetInstallment(ctx, fx.running.ID)
	if e.InstallmentsPaid != 1 {
		t.Fatalf("expected first installment to stay settled")
	}
}

func TestSettleRejectsInvalidClosingDay(t *testing.T) {
	s := NewSettler(memory.New(), nil, nil)
	if _, err := s.SettleCurrentMonth(context.Background(), day(2024, time.March, 12), 0); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAutoCloseProcessor(t *testing.T) {
	fx := newSettlementFixture(t)
	p := NewAutoCloseProcessor(NewSettler(fx.store, nil, nil), 31)

	// closing day 31 clamps to 30 in April
	res, err := p.ProcessDue(context.Background(), day(2024, time.April, 30))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Closed || res.Count() != 2 {
		t.Fatalf("expected the clamped closing day to settle, got %+v", res)
	}

	if _, err := (&AutoCloseProcessor{}).ProcessDue(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected error from uninitialized processor")
	}
}
