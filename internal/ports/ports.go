// Package ports declares what the services read from and write to.
// The REST client, the sqlite snapshot and the in-memory store all satisfy Store.
package ports

import (
	"context"

	"financy/internal/core"
)

type (
	AccountLister interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
	}

	TransactionLister interface {
		// ListTransactions returns transactions matching f; zero filter fields match everything.
		ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
	}

	TripLister interface {
		ListTrips(ctx context.Context) ([]core.Trip, error)
	}

	BudgetReader interface {
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		GetBudget(ctx context.Context, id int64) (core.Budget, error)
	}

	BudgetWriter interface {
		UpdateBudget(ctx context.Context, id int64, u core.BudgetUpdate) (core.Budget, error)
	}

	// RateFetcher returns the latest rate table against base, on or before date when set.
	RateFetcher interface {
		LatestRates(ctx context.Context, base string, date core.Date) (core.ExchangeRates, error)
	}

	// Source is everything a report reads.
	Source interface {
		AccountLister
		TransactionLister
		TripLister
		BudgetReader
		RateFetcher
	}

	// Store is a Source that can also persist budget edits.
	Store interface {
		Source
		BudgetWriter
	}

	// SnapshotWriter receives the data pulled from the backend during a sync.
	// Each Replace call swaps the stored set for the given one atomically.
	SnapshotWriter interface {
		ReplaceAccounts(ctx context.Context, accounts []core.Account) error
		ReplaceTrips(ctx context.Context, trips []core.Trip) error
		ReplaceBudgets(ctx context.Context, budgets []core.Budget) error
		// ReplaceTransactions swaps the transactions dated on or after since.
		ReplaceTransactions(ctx context.Context, since core.Date, txs []core.Transaction) error
		SaveRates(ctx context.Context, rates core.ExchangeRates) error
	}
)
