package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"financy/internal/core"
	"financy/internal/log"
	"financy/internal/ports"
)

// ErrBudgetRequired is returned by reports that compare against a budget when none is selected.
var ErrBudgetRequired = errors.New("budget id is required")

// loadConcurrency bounds the number of parallel source calls per report.
const loadConcurrency = 4

// ReportDefaults fill the fields a request leaves empty.
type ReportDefaults struct {
	Currency  string
	Frequency core.Frequency
	StartDay  int
}

// ReportRequest selects the window, currency and budget of a report.
type ReportRequest struct {
	Month     core.Month
	Frequency core.Frequency
	StartDay  int
	Currency  string
	// BudgetID picks the budget to compare against; zero means none.
	BudgetID int64
	GroupBy  core.GroupBy
	// AccountID restricts transactions to one account.
	AccountID int64
}

// ReportService loads data through a source and derives the dashboard aggregates.
type ReportService struct {
	source   ports.Source
	rates    *RateService
	defaults ReportDefaults
	logger   *log.Logger
	now      func() time.Time
}

func NewReportService(source ports.Source, rates *RateService, defaults ReportDefaults, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.Discard()
	}
	if defaults.Currency == "" {
		defaults.Currency = core.DefaultCurrency
	}
	if defaults.Frequency == "" {
		defaults.Frequency = core.Monthly
	}
	if defaults.StartDay == 0 {
		defaults.StartDay = 1
	}
	return &ReportService{
		source:   source,
		rates:    rates,
		defaults: defaults,
		logger:   logger.WithComponent(log.ComponentReport),
		now:      time.Now,
	}
}

// Normalize applies defaults and validates the request.
func (s *ReportService) Normalize(req ReportRequest) (ReportRequest, error) {
	if req.Month == (core.Month{}) {
		req.Month = core.MonthOf(s.now())
	}
	if req.Frequency == "" {
		req.Frequency = s.defaults.Frequency
	}
	if req.StartDay == 0 {
		req.StartDay = s.defaults.StartDay
	}
	req.Currency = strings.ToUpper(req.Currency)
	if req.Currency == "" {
		req.Currency = s.defaults.Currency
	}
	if req.GroupBy == "" {
		req.GroupBy = core.ByCategory
	}
	if _, err := GetPeriodStrategy(req.Frequency); err != nil {
		return req, err
	}
	if err := core.ValidateStartDay(req.StartDay); err != nil {
		return req, err
	}
	if !core.ValidCurrency(req.Currency) {
		return req, fmt.Errorf("%w: %q", core.ErrInvalidCurrency, req.Currency)
	}
	return req, nil
}

// dataset is what one report reads from the source.
type dataset struct {
	accounts []core.Account
	txs      []core.Transaction
	trips    []core.Trip
	budget   *core.Budget
	table    core.RateTable
	fallback bool
}

func (d dataset) resolver() core.CurrencyResolver { return core.NewCurrencyResolver(d.accounts) }

func (d dataset) expenses() []core.Transaction {
	return core.FilterTransactions(d.txs, core.TransactionFilter{TransactionType: core.Expense})
}

// load fetches accounts, transactions in span, trips, the selected budget and the
// rate table concurrently.
func (s *ReportService) load(ctx context.Context, req ReportRequest, span core.Period, withTrips bool) (dataset, error) {
	var d dataset
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	g.Go(func() error {
		accounts, err := s.source.ListAccounts(gctx)
		if err != nil {
			return fmt.Errorf("load accounts: %w", err)
		}
		d.accounts = accounts
		return nil
	})
	g.Go(func() error {
		f := core.TransactionFilter{AccountID: req.AccountID}.ForPeriod(span)
		txs, err := s.source.ListTransactions(gctx, f)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		// Not every source filters by date server side.
		d.txs = core.InPeriod(txs, span)
		return nil
	})
	if withTrips {
		g.Go(func() error {
			trips, err := s.source.ListTrips(gctx)
			if err != nil {
				return fmt.Errorf("load trips: %w", err)
			}
			d.trips = trips
			return nil
		})
	}
	if req.BudgetID > 0 {
		g.Go(func() error {
			b, err := s.source.GetBudget(gctx, req.BudgetID)
			if err != nil {
				return fmt.Errorf("load budget %d: %w", req.BudgetID, err)
			}
			d.budget = &b
			return nil
		})
	}
	g.Go(func() error {
		d.table, d.fallback = s.rates.Table(gctx, core.DefaultCurrency, core.Date{})
		return nil
	})

	if err := g.Wait(); err != nil {
		return dataset{}, err
	}
	return d, nil
}

// Summary assembles the expense dashboard for one window.
func (s *ReportService) Summary(ctx context.Context, req ReportRequest) (core.PeriodSummary, error) {
	req, err := s.Normalize(req)
	if err != nil {
		return core.PeriodSummary{}, err
	}
	strategy, _ := GetPeriodStrategy(req.Frequency)
	p := strategy.Window(req.Month, req.StartDay)
	prev := p.Previous()

	start := time.Now()
	d, err := s.load(ctx, req, core.Period{Start: prev.Start, End: p.End}, true)
	if err != nil {
		return core.PeriodSummary{}, err
	}
	before := core.InPeriod(d.txs, prev)
	d.txs = core.InPeriod(d.txs, p)

	res := d.resolver()
	expenses := d.expenses()
	trend := core.CompareSpending(
		core.TotalSpent(expenses, d.table, res, req.Currency),
		core.TotalSpent(before, d.table, res, req.Currency))
	sum := core.PeriodSummary{
		Month:         req.Month,
		Frequency:     req.Frequency,
		StartDay:      req.StartDay,
		Period:        p,
		Label:         core.FormatPeriod(p),
		Currency:      req.Currency,
		CashFlow:      core.SummarizeCashFlow(d.txs, d.table, res, req.Currency),
		Breakdown:     core.BreakdownExpenses(expenses, req.GroupBy, d.table, res, req.Currency),
		Trips:         core.SummarizeTrips(expenses, d.trips, d.table, res, req.Currency),
		Trend:         trend,
		RatesFallback: d.fallback,
	}
	if d.budget != nil {
		spending := core.ProrateBudget(*d.budget, expenses, d.table, res, req.Currency, p)
		status := core.EvaluateBudget(*d.budget, expenses, d.table, res)
		sum.Spending, sum.Budget = &spending, &status
	}

	fields := log.NewFields().WithPeriod(sum.Label, req.Currency).ToSlice()
	s.logger.InfoContext(ctx, "Built period summary",
		append(fields, log.FieldCount, len(d.txs), log.FieldDuration, time.Since(start).Milliseconds())...)
	return sum, nil
}

// BudgetPlan returns the planning totals of a budget.
func (s *ReportService) BudgetPlan(ctx context.Context, budgetID int64) (core.BudgetTotals, error) {
	b, err := s.source.GetBudget(ctx, budgetID)
	if err != nil {
		return core.BudgetTotals{}, fmt.Errorf("load budget %d: %w", budgetID, err)
	}
	return core.SummarizeBudget(b), nil
}

// BudgetStatus compares the requested budget with spending in the window.
func (s *ReportService) BudgetStatus(ctx context.Context, req ReportRequest) (core.BudgetStatus, error) {
	req, err := s.Normalize(req)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	if req.BudgetID <= 0 {
		return core.BudgetStatus{}, ErrBudgetRequired
	}
	strategy, _ := GetPeriodStrategy(req.Frequency)
	d, err := s.load(ctx, req, strategy.Window(req.Month, req.StartDay), false)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.EvaluateBudget(*d.budget, d.expenses(), d.table, d.resolver()), nil
}

// Breakdown groups spending in the window by req.GroupBy.
func (s *ReportService) Breakdown(ctx context.Context, req ReportRequest) (core.Breakdown, error) {
	req, err := s.Normalize(req)
	if err != nil {
		return core.Breakdown{}, err
	}
	strategy, _ := GetPeriodStrategy(req.Frequency)
	d, err := s.load(ctx, req, strategy.Window(req.Month, req.StartDay), false)
	if err != nil {
		return core.Breakdown{}, err
	}
	return core.BreakdownExpenses(d.expenses(), req.GroupBy, d.table, d.resolver(), req.Currency), nil
}

// Comparison is the spending per period of the strategy's series, with the
// prorated budget line when a budget is selected.
type Comparison struct {
	Currency string               `json:"currency"`
	Bars     []core.ComparisonBar `json:"bars"`
	// BudgetLine is the selected budget total in the display currency.
	BudgetLine *decimal.Decimal `json:"budget_line,omitempty"`
}

func (s *ReportService) Comparison(ctx context.Context, req ReportRequest) (Comparison, error) {
	req, err := s.Normalize(req)
	if err != nil {
		return Comparison{}, err
	}
	strategy, _ := GetPeriodStrategy(req.Frequency)
	series := strategy.Series(req.Month, req.StartDay)
	d, err := s.load(ctx, req, core.SeriesSpan(series), false)
	if err != nil {
		return Comparison{}, err
	}
	out := Comparison{
		Currency: req.Currency,
		Bars:     core.ComparePeriods(d.expenses(), series, d.table, d.resolver(), req.Currency),
	}
	if d.budget != nil {
		line := d.table.Convert(d.budget.TotalBudgeted(), d.budget.Currency, req.Currency)
		out.BudgetLine = &line
	}
	return out, nil
}

// Cumulative is the running spending of the window next to the equally long
// window that ends the day before it.
type Cumulative struct {
	Current  core.SpendingSeries `json:"current"`
	Previous core.SpendingSeries `json:"previous"`
}

func (s *ReportService) Cumulative(ctx context.Context, req ReportRequest) (Cumulative, error) {
	req, err := s.Normalize(req)
	if err != nil {
		return Cumulative{}, err
	}
	strategy, _ := GetPeriodStrategy(req.Frequency)
	current := strategy.Window(req.Month, req.StartDay)
	previous := current.Previous()

	d, err := s.load(ctx, req, core.Period{Start: previous.Start, End: current.End}, false)
	if err != nil {
		return Cumulative{}, err
	}
	res, expenses := d.resolver(), d.expenses()
	return Cumulative{
		Current:  core.CumulativeSpending(expenses, current, d.table, res, req.Currency),
		Previous: core.CumulativeSpending(expenses, previous, d.table, res, req.Currency),
	}, nil
}

// Trips totals trip spending in the window.
func (s *ReportService) Trips(ctx context.Context, req ReportRequest) ([]core.TripSummary, error) {
	req, err := s.Normalize(req)
	if err != nil {
		return nil, err
	}
	strategy, _ := GetPeriodStrategy(req.Frequency)
	d, err := s.load(ctx, req, strategy.Window(req.Month, req.StartDay), true)
	if err != nil {
		return nil, err
	}
	return core.SummarizeTrips(d.expenses(), d.trips, d.table, d.resolver(), req.Currency), nil
}
