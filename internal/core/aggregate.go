package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ByCategory GroupBy = "category"
	ByCurrency GroupBy = "currency"
	ByMerchant GroupBy = "merchant"
)

// GroupBy selects the key of a spending breakdown.
type GroupBy string

func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case ByCategory, ByCurrency, ByMerchant:
		return g, nil
	case "":
		return ByCategory, nil
	}
	return "", fmt.Errorf("unknown breakdown %q", s)
}

// TransactionFilter narrows a transaction listing. Zero fields match everything.
type TransactionFilter struct {
	AccountID       int64
	TransactionType TransactionType
	Category        string
	StartDate       Date
	EndDate         Date
	CurrencyCode    string
	TripID          int64
}

// ForPeriod restricts the filter to the days of p.
func (f TransactionFilter) ForPeriod(p Period) TransactionFilter {
	f.StartDate = p.FirstDay()
	f.EndDate = p.LastDay()
	return f
}

func (f TransactionFilter) Matches(t Transaction) bool {
	switch {
	case f.AccountID != 0 && t.AccountID != f.AccountID:
		return false
	case f.TransactionType != "" && t.TransactionType != f.TransactionType:
		return false
	case f.Category != "" && t.Category != f.Category:
		return false
	case f.CurrencyCode != "" && t.CurrencyCode != f.CurrencyCode:
		return false
	case f.TripID != 0 && t.TripID != f.TripID:
		return false
	case !f.StartDate.IsZero() && t.TransactionDate.Before(f.StartDate.Time):
		return false
	case !f.EndDate.IsZero() && t.TransactionDate.After(f.EndDate.Time):
		return false
	}
	return true
}

// FilterTransactions keeps the transactions matching f, in order.
func FilterTransactions(txs []Transaction, f TransactionFilter) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// InPeriod keeps the transactions dated inside p.
func InPeriod(txs []Transaction, p Period) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if p.ContainsDate(t.TransactionDate) {
			out = append(out, t)
		}
	}
	return out
}

// BreakdownSlice is one slice of a spending donut.
type BreakdownSlice struct {
	Label   string          `json:"label"`
	Value   decimal.Decimal `json:"value"`
	Count   int             `json:"count"`
	Percent decimal.Decimal `json:"percent"`
}

type Breakdown struct {
	GroupBy  GroupBy          `json:"group_by"`
	Currency string           `json:"currency"`
	Total    decimal.Decimal  `json:"total"`
	Slices   []BreakdownSlice `json:"slices"`
}

// BreakdownExpenses groups spending by category, currency or merchant, in the
// display currency, with slices sorted by label.
func BreakdownExpenses(expenses []Transaction, by GroupBy, conv Converter, res CurrencyResolver, display string) Breakdown {
	totals := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, e := range expenses {
		if !e.IsExpense() {
			continue
		}
		currency := res.Currency(e)
		var key string
		switch by {
		case ByCurrency:
			key = currency
		case ByMerchant:
			key = labelOr(e.Merchant, "Unknown")
		default:
			key = labelOr(e.Category, "Uncategorized")
		}
		totals[key] = totals[key].Add(conv.Convert(e.Amount.Abs(), currency, display))
		counts[key]++
	}

	b := Breakdown{GroupBy: by, Currency: display, Slices: make([]BreakdownSlice, 0, len(totals))}
	labels := make([]string, 0, len(totals))
	for label := range totals {
		labels = append(labels, label)
		b.Total = b.Total.Add(totals[label])
	}
	sort.Strings(labels)
	for _, label := range labels {
		b.Slices = append(b.Slices, BreakdownSlice{
			Label:   label,
			Value:   totals[label],
			Count:   counts[label],
			Percent: share(totals[label], b.Total),
		})
	}
	return b
}

// TripSummary is the spending attributed to one trip.
type TripSummary struct {
	TripID     int64           `json:"trip_id"`
	Label      string          `json:"label"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
	LatestDate Date            `json:"latest_date"`
}

// SummarizeTrips groups expenses carrying a trip id, largest total first.
// Trips are labelled by name when known, otherwise "Trip <id>".
func SummarizeTrips(expenses []Transaction, trips []Trip, conv Converter, res CurrencyResolver, display string) []TripSummary {
	names := make(map[int64]string, len(trips))
	for _, t := range trips {
		names[t.TripID] = t.TripName
	}
	byTrip := make(map[int64]*TripSummary)
	for _, e := range expenses {
		if !e.IsExpense() || e.TripID <= 0 {
			continue
		}
		s, ok := byTrip[e.TripID]
		if !ok {
			s = &TripSummary{TripID: e.TripID, Label: labelOr(names[e.TripID], fmt.Sprintf("Trip %d", e.TripID))}
			byTrip[e.TripID] = s
		}
		s.Total = s.Total.Add(conv.Convert(e.Amount.Abs(), res.Currency(e), display))
		s.Count++
		if e.TransactionDate.After(s.LatestDate.Time) {
			s.LatestDate = e.TransactionDate
		}
	}
	out := make([]TripSummary, 0, len(byTrip))
	for _, s := range byTrip {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].TripID < out[j].TripID
	})
	return out
}

type SpendingPoint struct {
	Date       Date            `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// SpendingSeries has one point per day of Period.
type SpendingSeries struct {
	Period   Period          `json:"period"`
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
	Points   []SpendingPoint `json:"points"`
}

// CumulativeSpending builds the running total of spending over each day of p.
// Expenses outside p are ignored.
func CumulativeSpending(expenses []Transaction, p Period, conv Converter, res CurrencyResolver, display string) SpendingSeries {
	daily := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		if !e.IsExpense() || !p.ContainsDate(e.TransactionDate) {
			continue
		}
		key := e.TransactionDate.String()
		daily[key] = daily[key].Add(conv.Convert(e.Amount.Abs(), res.Currency(e), display))
	}
	s := SpendingSeries{Period: p, Currency: display}
	for _, d := range p.Dates() {
		amount := daily[d.String()]
		s.Total = s.Total.Add(amount)
		s.Points = append(s.Points, SpendingPoint{Date: d, Amount: amount, Cumulative: s.Total})
	}
	return s
}

// ComparisonBar is the spending total of one period of a comparison chart.
type ComparisonBar struct {
	LabeledPeriod
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// ComparePeriods totals spending for each period of the series.
func ComparePeriods(expenses []Transaction, series []LabeledPeriod, conv Converter, res CurrencyResolver, display string) []ComparisonBar {
	out := make([]ComparisonBar, len(series))
	for i, p := range series {
		out[i] = ComparisonBar{LabeledPeriod: p}
	}
	for _, e := range expenses {
		if !e.IsExpense() {
			continue
		}
		amount := conv.Convert(e.Amount.Abs(), res.Currency(e), display)
		for i := range out {
			if out[i].ContainsDate(e.TransactionDate) {
				out[i].Total = out[i].Total.Add(amount)
				out[i].Count++
			}
		}
	}
	return out
}

// CashFlow is money in and out over a period in the display currency.
type CashFlow struct {
	Currency string          `json:"currency"`
	MoneyIn  decimal.Decimal `json:"money_in"`
	MoneyOut decimal.Decimal `json:"money_out"`
	Net      decimal.Decimal `json:"net"`
}

// SummarizeCashFlow counts income as money in and expenses as money out.
// Transfers and adjustments move money between accounts and are left out.
func SummarizeCashFlow(txs []Transaction, conv Converter, res CurrencyResolver, display string) CashFlow {
	cf := CashFlow{Currency: display}
	for _, t := range txs {
		amount := conv.Convert(t.Amount.Abs(), res.Currency(t), display)
		switch t.TransactionType {
		case Income:
			cf.MoneyIn = cf.MoneyIn.Add(amount)
		case Expense:
			cf.MoneyOut = cf.MoneyOut.Add(amount)
		}
	}
	cf.Net = cf.MoneyIn.Sub(cf.MoneyOut)
	return cf
}

func share(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(1)
}

func labelOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func sortedStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
