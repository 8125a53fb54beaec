package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"sync"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

// Store is a mutex-guarded in-memory ledger. Records are returned as copies.
type Store struct {
	mu           sync.Mutex
	nextID       int64
	installments map[int64]core.InstallmentExpense
	fixed        map[int64]core.FixedExpense
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		nextID:       1,
		installments: make(map[int64]core.InstallmentExpense),
		fixed:        make(map[int64]core.FixedExpense),
	}
}

// Snapshot is the seed file layout accepted by NewFromFile.
type Snapshot struct {
	Installments []core.InstallmentExpense `json:"installments"`
	Fixed        []core.FixedExpense       `json:"fixed"`
}

// NewFromFile seeds a store from a JSON snapshot. A missing file yields an
// empty store. Seeded records keep their paid counts and settled months.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	for _, e := range snap.Installments {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("seed installment %q: %w", e.Description, err)
		}
		e.ID = s.assignID(e.ID)
		s.installments[e.ID] = cloneInstallment(e)
	}
	for _, f := range snap.Fixed {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("seed fixed expense %q: %w", f.Description, err)
		}
		f.ID = s.assignID(f.ID)
		s.fixed[f.ID] = cloneFixed(f)
	}
	return s, nil
}

func (s *Store) assignID(want int64) int64 {
	if want <= 0 {
		want = s.nextID
	}
	if want >= s.nextID {
		s.nextID = want + 1
	}
	return want
}

func (s *Store) ListInstallments(_ context.Context) ([]core.InstallmentExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.InstallmentExpense, 0, len(s.installments))
	for _, id := range slices.Sorted(maps.Keys(s.installments)) {
		out = append(out, cloneInstallment(s.installments[id]))
	}
	return out, nil
}

func (s *Store) ListFixed(_ context.Context) ([]core.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.FixedExpense, 0, len(s.fixed))
	for _, id := range slices.Sorted(maps.Keys(s.fixed)) {
		out = append(out, cloneFixed(s.fixed[id]))
	}
	return out, nil
}

func (s *Store) GetInstallment(_ context.Context, id int64) (core.InstallmentExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.installments[id]
	if !ok {
		return core.InstallmentExpense{}, &core.NotFoundError{Kind: ledger.KindInstallment, ID: id}
	}
	return cloneInstallment(e), nil
}

func (s *Store) GetFixed(_ context.Context, id int64) (core.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fixed[id]
	if !ok {
		return core.FixedExpense{}, &core.NotFoundError{Kind: ledger.KindFixed, ID: id}
	}
	return cloneFixed(f), nil
}

func (s *Store) InsertInstallment(_ context.Context, e core.InstallmentExpense) (core.InstallmentExpense, error) {
	e, err := ledger.PrepareInstallment(e)
	if err != nil {
		return core.InstallmentExpense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.assignID(0)
	s.installments[e.ID] = cloneInstallment(e)
	return cloneInstallment(e), nil
}

func (s *Store) InsertFixed(_ context.Context, f core.FixedExpense) (core.FixedExpense, error) {
	f, err := ledger.PrepareFixed(f)
	if err != nil {
		return core.FixedExpense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.assignID(0)
	s.fixed[f.ID] = cloneFixed(f)
	return cloneFixed(f), nil
}

func (s *Store) UpdateInstallment(_ context.Context, id int64, p ledger.InstallmentPatch) (core.InstallmentExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.installments[id]
	if !ok {
		return core.InstallmentExpense{}, &core.NotFoundError{Kind: ledger.KindInstallment, ID: id}
	}
	next := p.Apply(cloneInstallment(cur))
	next.ID = id
	if err := next.Validate(); err != nil {
		return core.InstallmentExpense{}, err
	}
	s.installments[id] = cloneInstallment(next)
	return next, nil
}

func (s *Store) UpdateFixed(_ context.Context, id int64, p ledger.FixedPatch) (core.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.fixed[id]
	if !ok {
		return core.FixedExpense{}, &core.NotFoundError{Kind: ledger.KindFixed, ID: id}
	}
	next := p.Apply(cloneFixed(cur))
	next.ID = id
	if err := next.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	s.fixed[id] = cloneFixed(next)
	return next, nil
}

func (s *Store) DeleteInstallment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.installments, id)
	return nil
}

func (s *Store) DeleteFixed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fixed, id)
	return nil
}

func (s *Store) Close() error { return nil }

func cloneInstallment(e core.InstallmentExpense) core.InstallmentExpense {
	e.SettledMonths = slices.Clone(e.SettledMonths)
	return e
}

func cloneFixed(f core.FixedExpense) core.FixedExpense {
	f.SettledMonths = slices.Clone(f.SettledMonths)
	f.Overrides = maps.Clone(f.Overrides)
	return f
}
