// Package storage keeps an offline sqlite snapshot of the finance backend.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"financy/internal/core"
	"financy/internal/ports"

	_ "modernc.org/sqlite"
)

var timeNow = time.Now

type SQLiteRepository struct {
	db   *sql.DB
	path string
}

var (
	_ ports.Store          = (*SQLiteRepository)(nil)
	_ ports.SnapshotWriter = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY between them.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	const query = `SELECT account_id, account_name, account_type, institution, currency_code
	FROM accounts ORDER BY account_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.AccountID, &a.AccountName, &a.AccountType, &a.Institution, &a.CurrencyCode); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		where = append(where, clause)
		args = append(args, v)
	}
	if f.AccountID > 0 {
		add("t.account_id = ?", f.AccountID)
	}
	if f.TransactionType != "" {
		add("t.transaction_type = ?", string(f.TransactionType))
	}
	if f.Category != "" {
		add("t.category = ?", f.Category)
	}
	if !f.StartDate.IsZero() {
		add("t.transaction_date >= ?", f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		add("t.transaction_date <= ?", f.EndDate.String())
	}
	if f.CurrencyCode != "" {
		add("COALESCE(NULLIF(t.currency_code, ''), a.currency_code) = ?", f.CurrencyCode)
	}
	if f.TripID > 0 {
		add("t.trip_id = ?", f.TripID)
	}

	query := `SELECT t.transaction_id, t.account_id, t.amount, t.transaction_type, t.category,
		t.transaction_date, t.description, t.merchant, t.trip_id,
		COALESCE(NULLIF(t.account_name, ''), a.account_name, ''),
		COALESCE(NULLIF(t.currency_code, ''), a.currency_code, '')
	FROM transactions t LEFT JOIN accounts a ON a.account_id = t.account_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.transaction_date DESC, t.transaction_id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			t    core.Transaction
			typ  string
			date string
		)
		if err := rows.Scan(&t.TransactionID, &t.AccountID, &t.Amount, &typ, &t.Category,
			&date, &t.Description, &t.Merchant, &t.TripID, &t.AccountName, &t.CurrencyCode); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.TransactionType = core.TransactionType(typ)
		if t.TransactionDate, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", t.TransactionID, err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) ListTrips(ctx context.Context) ([]core.Trip, error) {
	const query = `SELECT trip_id, trip_name, start_date, end_date, location, description, created_at, updated_at
	FROM trips ORDER BY trip_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	var trips []core.Trip
	for rows.Next() {
		var (
			t          core.Trip
			start, end sql.NullString
		)
		if err := rows.Scan(&t.TripID, &t.TripName, &start, &end, &t.Location, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		t.StartDate = optionalDate(start)
		t.EndDate = optionalDate(end)
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

const budgetColumns = `budget_id, name, currency, income_sources, categories, created_at, updated_at`

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY budget_id`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE budget_id = ?`, id)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	return b, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b                   core.Budget
		sources, categories string
	)
	if err := s.Scan(&b.BudgetID, &b.Name, &b.Currency, &sources, &categories, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, err
		}
		return b, fmt.Errorf("scan budget: %w", err)
	}
	if err := json.Unmarshal([]byte(sources), &b.IncomeSources); err != nil {
		return b, fmt.Errorf("decode income sources of budget %d: %w", b.BudgetID, err)
	}
	if err := json.Unmarshal([]byte(categories), &b.Categories); err != nil {
		return b, fmt.Errorf("decode categories of budget %d: %w", b.BudgetID, err)
	}
	return b, nil
}

// UpdateBudget applies a partial update to the stored budget.
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, id int64, u core.BudgetUpdate) (core.Budget, error) {
	if err := u.Validate(); err != nil {
		return core.Budget{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Budget{}, fmt.Errorf("begin budget update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE budget_id = ?`, id)
	current, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, err
	}

	updated := u.Apply(current)
	updated.UpdatedAt = timeNow().UTC().Format(time.RFC3339)
	if err := upsertBudget(ctx, tx, updated); err != nil {
		return core.Budget{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Budget{}, fmt.Errorf("commit budget update: %w", err)
	}
	return updated, nil
}

// LatestRates returns the newest stored table for base on or before date. When only
// another base was synced, that table is rebased.
func (r *SQLiteRepository) LatestRates(ctx context.Context, base string, date core.Date) (core.ExchangeRates, error) {
	base = strings.ToUpper(base)
	if base == "" {
		base = core.DefaultCurrency
	}

	rates, err := r.ratesFor(ctx, base, date)
	if err == nil {
		return rates, nil
	}
	if !errors.Is(err, core.ErrNotFound) || base == core.DefaultCurrency {
		return core.ExchangeRates{}, err
	}

	eur, err := r.ratesFor(ctx, core.DefaultCurrency, date)
	if err != nil {
		return core.ExchangeRates{}, err
	}
	rebased, ok := core.NewRateTable(eur).Rebase(base)
	if !ok {
		return core.ExchangeRates{}, fmt.Errorf("rates for %s: %w", base, core.ErrNotFound)
	}
	return rebased.ExchangeRates(), nil
}

func (r *SQLiteRepository) ratesFor(ctx context.Context, base string, date core.Date) (core.ExchangeRates, error) {
	cutoff := "9999-12-31"
	if !date.IsZero() {
		cutoff = date.String()
	}

	var day sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(rate_date) FROM exchange_rates WHERE base_currency = ? AND rate_date <= ?`,
		base, cutoff).Scan(&day)
	if err != nil {
		return core.ExchangeRates{}, fmt.Errorf("find rate date: %w", err)
	}
	if !day.Valid {
		return core.ExchangeRates{}, fmt.Errorf("rates for %s: %w", base, core.ErrNotFound)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT target_currency, rate FROM exchange_rates WHERE base_currency = ? AND rate_date = ?`,
		base, day.String)
	if err != nil {
		return core.ExchangeRates{}, fmt.Errorf("list rates: %w", err)
	}
	defer rows.Close()

	out := core.ExchangeRates{BaseCurrency: base, Rates: map[string]decimal.Decimal{}, Date: optionalDate(day)}
	for rows.Next() {
		var (
			code string
			rate decimal.Decimal
		)
		if err := rows.Scan(&code, &rate); err != nil {
			return core.ExchangeRates{}, fmt.Errorf("scan rate: %w", err)
		}
		out.Rates[code] = rate
	}
	return out, rows.Err()
}

// LastSync returns the most recent sync run, or core.ErrNotFound before the first one.
func (r *SQLiteRepository) LastSync(ctx context.Context) (core.SyncReport, error) {
	const query = `SELECT started_at, finished_at, since, accounts, trips, budgets, transactions, rates, error
	FROM sync_runs ORDER BY id DESC LIMIT 1`

	var (
		rep                      core.SyncReport
		started, finished, since string
	)
	err := r.db.QueryRowContext(ctx, query).Scan(&started, &finished, &since,
		&rep.Accounts, &rep.Trips, &rep.Budgets, &rep.Transactions, &rep.Rates, &rep.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return rep, fmt.Errorf("last sync: %w", core.ErrNotFound)
	}
	if err != nil {
		return rep, fmt.Errorf("last sync: %w", err)
	}
	rep.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	rep.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	rep.Since, _ = core.ParseDate(since)
	return rep, nil
}

// RecordSync stores the outcome of a sync run.
func (r *SQLiteRepository) RecordSync(ctx context.Context, rep core.SyncReport) error {
	const query = `INSERT INTO sync_runs (started_at, finished_at, since, accounts, trips, budgets, transactions, rates, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, rep.StartedAt.UTC().Format(time.RFC3339Nano),
		rep.FinishedAt.UTC().Format(time.RFC3339Nano), rep.Since.String(),
		rep.Accounts, rep.Trips, rep.Budgets, rep.Transactions, rep.Rates, rep.Error)
	if err != nil {
		return fmt.Errorf("record sync: %w", err)
	}
	return nil
}

func optionalDate(s sql.NullString) *core.Date {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := core.ParseDate(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func nullableDate(d *core.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
