package core

import "github.com/shopspring/decimal"

// PeriodSummary is everything the expense dashboard shows for one reporting window.
type PeriodSummary struct {
	Month     Month           `json:"month"`
	Frequency Frequency       `json:"frequency"`
	StartDay  int             `json:"start_day"`
	Period    Period          `json:"period"`
	Label     string          `json:"label"`
	Currency  string          `json:"currency"`
	CashFlow  CashFlow        `json:"cash_flow"`
	Breakdown Breakdown       `json:"breakdown"`
	Trips     []TripSummary   `json:"trips"`
	Spending  *SpendingStatus `json:"budget_status,omitempty"`
	Budget    *BudgetStatus   `json:"budget_comparison,omitempty"`
	Trend     *SpendingTrend  `json:"trend,omitempty"`
	// RatesFallback is set when live exchange rates were unavailable.
	RatesFallback bool `json:"rates_fallback,omitempty"`
}

// SpendingTrend compares a window's spending with the window just before it.
type SpendingTrend struct {
	Current  decimal.Decimal `json:"current"`
	Previous decimal.Decimal `json:"previous"`
	// Percent is the size of the change, 0 when nothing was spent before.
	Percent decimal.Decimal `json:"percent"`
	Up      bool            `json:"up"`
}

// CompareSpending returns the change from previous to current, or nil when
// nothing was spent in the current window.
func CompareSpending(current, previous decimal.Decimal) *SpendingTrend {
	if !current.IsPositive() {
		return nil
	}
	t := &SpendingTrend{Current: current, Previous: previous, Percent: decimal.Zero}
	if previous.IsPositive() {
		change := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
		t.Percent = change.Abs().Round(1)
		t.Up = change.IsPositive()
	}
	return t
}
