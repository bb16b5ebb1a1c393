// Package memory is an in-process data source for demos and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"financy/internal/core"
	"financy/internal/ports"
)

var (
	_ ports.Store          = (*Store)(nil)
	_ ports.SnapshotWriter = (*Store)(nil)
)

// Seed is the layout of a SEED_FILE.
type Seed struct {
	Accounts     []core.Account       `json:"accounts"`
	Transactions []core.Transaction   `json:"transactions"`
	Trips        []core.Trip          `json:"trips"`
	Budgets      []core.Budget        `json:"budgets"`
	Rates        []core.ExchangeRates `json:"rates"`
}

type Store struct {
	mu       sync.RWMutex
	accounts []core.Account
	txs      []core.Transaction
	trips    []core.Trip
	budgets  map[int64]core.Budget
	rates    []core.ExchangeRates
}

func New(seed Seed) *Store {
	s := &Store{budgets: map[int64]core.Budget{}}
	s.accounts = append(s.accounts, seed.Accounts...)
	s.txs = append(s.txs, seed.Transactions...)
	s.trips = append(s.trips, seed.Trips...)
	for _, b := range seed.Budgets {
		s.budgets[b.BudgetID] = b
	}
	s.rates = append(s.rates, seed.Rates...)
	return s
}

// NewFromFile loads a JSON seed. An empty path yields an empty store.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(Seed{}), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return New(seed), nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Account(nil), s.accounts...), nil
}

// ListTransactions returns matches newest first, filling currency and account name
// from the account when the transaction lacks them.
func (s *Store) ListTransactions(_ context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[int64]core.Account, len(s.accounts))
	for _, a := range s.accounts {
		byID[a.AccountID] = a
	}

	var out []core.Transaction
	for _, t := range s.txs {
		if a, ok := byID[t.AccountID]; ok {
			if t.CurrencyCode == "" {
				t.CurrencyCode = a.CurrencyCode
			}
			if t.AccountName == "" {
				t.AccountName = a.AccountName
			}
		}
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate.Time) {
			return out[i].TransactionDate.After(out[j].TransactionDate.Time)
		}
		return out[i].TransactionID > out[j].TransactionID
	})
	return out, nil
}

func (s *Store) ListTrips(_ context.Context) ([]core.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Trip(nil), s.trips...), nil
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BudgetID < out[j].BudgetID })
	return out, nil
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, id int64, u core.BudgetUpdate) (core.Budget, error) {
	if err := u.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	b = u.Apply(b)
	b.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	s.budgets[id] = b
	return b, nil
}

// LatestRates picks the newest table for base dated on or before date, rebasing
// another table when base has none of its own.
func (s *Store) LatestRates(_ context.Context, base string, date core.Date) (core.ExchangeRates, error) {
	base = strings.ToUpper(base)
	if base == "" {
		base = core.DefaultCurrency
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.newestTable(date, func(t core.RateTable) bool { return t.Base == base }); ok {
		return t.ExchangeRates(), nil
	}
	if t, ok := s.newestTable(date, func(t core.RateTable) bool { return t.Has(base) }); ok {
		rebased, _ := t.Rebase(base)
		return rebased.ExchangeRates(), nil
	}
	return core.ExchangeRates{}, fmt.Errorf("rates for %s: %w", base, core.ErrNotFound)
}

func (s *Store) newestTable(date core.Date, want func(core.RateTable) bool) (core.RateTable, bool) {
	var (
		best  core.RateTable
		found bool
	)
	for _, r := range s.rates {
		t := core.NewRateTable(r)
		if !want(t) || !date.IsZero() && t.Date != nil && t.Date.After(date.Time) {
			continue
		}
		if !found || newer(t.Date, best.Date) {
			best, found = t, true
		}
	}
	return best, found
}

func newer(a, b *core.Date) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	}
	return a.After(b.Time)
}

func (s *Store) ReplaceAccounts(_ context.Context, accounts []core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append([]core.Account(nil), accounts...)
	return nil
}

func (s *Store) ReplaceTrips(_ context.Context, trips []core.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = append([]core.Trip(nil), trips...)
	return nil
}

func (s *Store) ReplaceBudgets(_ context.Context, budgets []core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets = make(map[int64]core.Budget, len(budgets))
	for _, b := range budgets {
		s.budgets[b.BudgetID] = b
	}
	return nil
}

func (s *Store) ReplaceTransactions(_ context.Context, since core.Date, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.txs[:0:0]
	if !since.IsZero() {
		for _, t := range s.txs {
			if t.TransactionDate.Before(since.Time) {
				kept = append(kept, t)
			}
		}
	}
	s.txs = append(kept, txs...)
	return nil
}

func (s *Store) SaveRates(_ context.Context, rates core.ExchangeRates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = append(s.rates, rates)
	return nil
}
