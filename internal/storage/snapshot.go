package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"financy/internal/core"
)

// withTx runs fn inside a transaction, rolling back when it fails.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ReplaceAccounts(ctx context.Context, accounts []core.Account) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
			return fmt.Errorf("clear accounts: %w", err)
		}
		const query = `INSERT INTO accounts (account_id, account_name, account_type, institution, currency_code)
		VALUES (?, ?, ?, ?, ?)`
		for _, a := range accounts {
			if _, err := tx.ExecContext(ctx, query, a.AccountID, a.AccountName, a.AccountType, a.Institution, a.CurrencyCode); err != nil {
				return fmt.Errorf("insert account %d: %w", a.AccountID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) ReplaceTrips(ctx context.Context, trips []core.Trip) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM trips`); err != nil {
			return fmt.Errorf("clear trips: %w", err)
		}
		const query = `INSERT INTO trips (trip_id, trip_name, start_date, end_date, location, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		for _, t := range trips {
			if _, err := tx.ExecContext(ctx, query, t.TripID, t.TripName, nullableDate(t.StartDate), nullableDate(t.EndDate),
				t.Location, t.Description, t.CreatedAt, t.UpdatedAt); err != nil {
				return fmt.Errorf("insert trip %d: %w", t.TripID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) ReplaceBudgets(ctx context.Context, budgets []core.Budget) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM budgets`); err != nil {
			return fmt.Errorf("clear budgets: %w", err)
		}
		for _, b := range budgets {
			if err := upsertBudget(ctx, tx, b); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertBudget(ctx context.Context, tx *sql.Tx, b core.Budget) error {
	sources, err := json.Marshal(nonNil(b.IncomeSources))
	if err != nil {
		return fmt.Errorf("encode income sources: %w", err)
	}
	categories, err := json.Marshal(nonNil(b.Categories))
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	const query = `INSERT INTO budgets (` + budgetColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(budget_id) DO UPDATE SET
		name = excluded.name,
		currency = excluded.currency,
		income_sources = excluded.income_sources,
		categories = excluded.categories,
		updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, query, b.BudgetID, b.Name, b.Currency, string(sources), string(categories),
		b.CreatedAt, b.UpdatedAt); err != nil {
		return fmt.Errorf("upsert budget %d: %w", b.BudgetID, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ReplaceTransactions swaps the stored transactions dated on or after since for txs.
// A zero since replaces everything.
func (r *SQLiteRepository) ReplaceTransactions(ctx context.Context, since core.Date, txs []core.Transaction) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if since.IsZero() {
			_, err = tx.ExecContext(ctx, `DELETE FROM transactions`)
		} else {
			_, err = tx.ExecContext(ctx, `DELETE FROM transactions WHERE transaction_date >= ?`, since.String())
		}
		if err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}

		const query = `INSERT OR REPLACE INTO transactions (transaction_id, account_id, amount, transaction_type, category,
			transaction_date, description, merchant, trip_id, account_name, currency_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("prepare transaction insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range txs {
			if _, err := stmt.ExecContext(ctx, t.TransactionID, t.AccountID, t.Amount.String(), string(t.TransactionType),
				t.Category, t.TransactionDate.String(), t.Description, t.Merchant, t.TripID, t.AccountName, t.CurrencyCode); err != nil {
				return fmt.Errorf("insert transaction %d: %w", t.TransactionID, err)
			}
		}
		return nil
	})
}

// SaveRates upserts one rate table under its date (today's snapshot when the table has none).
func (r *SQLiteRepository) SaveRates(ctx context.Context, rates core.ExchangeRates) error {
	base := strings.ToUpper(rates.BaseCurrency)
	if base == "" {
		base = core.DefaultCurrency
	}
	day := core.DateOf(timeNow())
	if rates.Date != nil && !rates.Date.IsZero() {
		day = *rates.Date
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		const query = `INSERT INTO exchange_rates (base_currency, target_currency, rate, rate_date) VALUES (?, ?, ?, ?)
		ON CONFLICT(base_currency, target_currency, rate_date) DO UPDATE SET rate = excluded.rate`
		for code, rate := range rates.Rates {
			if !rate.IsPositive() {
				continue
			}
			if _, err := tx.ExecContext(ctx, query, base, strings.ToUpper(code), rate.String(), day.String()); err != nil {
				return fmt.Errorf("save rate %s/%s: %w", base, code, err)
			}
		}
		return nil
	})
}
