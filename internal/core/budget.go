package core

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BudgetTotals is the planning view of a budget: what is allocated per bucket
// against total income.
type BudgetTotals struct {
	Currency       string          `json:"currency"`
	Income         decimal.Decimal `json:"income"`
	Needs          decimal.Decimal `json:"needs"`
	Wants          decimal.Decimal `json:"wants"`
	Savings        decimal.Decimal `json:"savings"`
	Total          decimal.Decimal `json:"total"`
	Remaining      decimal.Decimal `json:"remaining"`
	NeedsPercent   decimal.Decimal `json:"needs_percent"`
	WantsPercent   decimal.Decimal `json:"wants_percent"`
	SavingsPercent decimal.Decimal `json:"savings_percent"`
}

// CategoryStatus compares one budget category with what was spent on it.
type CategoryStatus struct {
	Name       string          `json:"category"`
	Type       CategoryType    `json:"type"`
	Budgeted   decimal.Decimal `json:"budgeted"`
	Actual     decimal.Decimal `json:"actual"`
	Remaining  decimal.Decimal `json:"remaining"`
	OverBudget bool            `json:"is_overspent"`
	Percent    decimal.Decimal `json:"percentage"`
	DailyRate  decimal.Decimal `json:"daily_rate"`
	// Sources lists the expense categories whose spending landed here.
	Sources []string `json:"sources,omitempty"`
}

// BucketStatus rolls the categories of one type together.
type BucketStatus struct {
	Type       CategoryType     `json:"type"`
	Budgeted   decimal.Decimal  `json:"budgeted"`
	Actual     decimal.Decimal  `json:"actual"`
	Remaining  decimal.Decimal  `json:"remaining"`
	OverBudget bool             `json:"is_overspent"`
	Percent    decimal.Decimal  `json:"percentage"`
	DailyRate  decimal.Decimal  `json:"daily_rate"`
	Categories []CategoryStatus `json:"categories"`
}

// BudgetStatus is budget-vs-actual for a set of expenses, in the budget currency.
type BudgetStatus struct {
	BudgetID      int64           `json:"budget_id"`
	Currency      string          `json:"currency"`
	TotalBudgeted decimal.Decimal `json:"total_budgeted"`
	TotalActual   decimal.Decimal `json:"total_actual"`
	Remaining     decimal.Decimal `json:"remaining"`
	OverBudget    bool            `json:"is_over_budget"`
	// Unbudgeted is spending in expense categories no budget category claims.
	Unbudgeted decimal.Decimal  `json:"unbudgeted"`
	Categories []CategoryStatus `json:"categories"`
	Buckets    []BucketStatus   `json:"buckets"`
}

// SpendingStatus is the headline card: a prorated budget against all spending,
// in the display currency.
type SpendingStatus struct {
	Currency   string          `json:"currency"`
	Budgeted   decimal.Decimal `json:"total_budgeted"`
	Actual     decimal.Decimal `json:"total_actual"`
	Remaining  decimal.Decimal `json:"remaining"`
	OverBudget bool            `json:"is_over_budget"`
}

// BucketOrder is the display order of budget category types.
var BucketOrder = []CategoryType{Needs, Wants, Savings}

// SummarizeBudget computes the planning totals of b. Percentages are of income
// and are zero when there is no income.
func SummarizeBudget(b Budget) BudgetTotals {
	t := BudgetTotals{Currency: b.Currency}
	for _, s := range b.IncomeSources {
		t.Income = t.Income.Add(s.Amount)
	}
	for _, c := range b.Categories {
		switch c.Type {
		case Needs:
			t.Needs = t.Needs.Add(c.BudgetedAmount)
		case Wants:
			t.Wants = t.Wants.Add(c.BudgetedAmount)
		case Savings:
			t.Savings = t.Savings.Add(c.BudgetedAmount)
		}
	}
	t.Total = t.Needs.Add(t.Wants).Add(t.Savings)
	t.Remaining = t.Income.Sub(t.Total)
	t.NeedsPercent = percentOf(t.Needs, t.Income)
	t.WantsPercent = percentOf(t.Wants, t.Income)
	t.SavingsPercent = percentOf(t.Savings, t.Income)
	return t
}

// TotalBudgeted sums the budgeted amounts of every category.
func (b Budget) TotalBudgeted() decimal.Decimal {
	total := decimal.Zero
	for _, c := range b.Categories {
		total = total.Add(c.BudgetedAmount)
	}
	return total
}

// EvaluateBudget compares b with the given expenses.
//
// Spending is grouped by expense category using absolute amounts converted into
// the budget currency. A budget category collects its own name plus its mapped
// expense categories. An expense category is attributed to one budget category
// only: an exact name match wins, otherwise the first category that maps it.
func EvaluateBudget(b Budget, expenses []Transaction, conv Converter, res CurrencyResolver) BudgetStatus {
	spending := make(map[string]decimal.Decimal)
	days := make(map[string]struct{})
	for _, e := range expenses {
		if !e.IsExpense() {
			continue
		}
		amount := conv.Convert(e.Amount.Abs(), res.Currency(e), b.Currency)
		spending[e.Category] = spending[e.Category].Add(amount)
		days[e.TransactionDate.String()] = struct{}{}
	}
	activeDays := decimal.NewFromInt(int64(max(len(days), 1)))

	owner := make(map[string]int, len(b.Categories))
	for i, c := range b.Categories {
		if _, taken := owner[c.Name]; !taken {
			owner[c.Name] = i
		}
	}
	for i, c := range b.Categories {
		for _, mapped := range c.MappedExpenseCategories {
			if _, taken := owner[mapped]; !taken {
				owner[mapped] = i
			}
		}
	}

	sources := make([][]string, len(b.Categories))
	actuals := make([]decimal.Decimal, len(b.Categories))
	unbudgeted := decimal.Zero
	for category, amount := range spending {
		i, ok := owner[category]
		if !ok {
			unbudgeted = unbudgeted.Add(amount)
			continue
		}
		actuals[i] = actuals[i].Add(amount)
		sources[i] = append(sources[i], category)
	}

	status := BudgetStatus{
		BudgetID:   b.BudgetID,
		Currency:   b.Currency,
		Unbudgeted: unbudgeted,
		Categories: make([]CategoryStatus, 0, len(b.Categories)),
	}
	buckets := make(map[CategoryType]*BucketStatus)
	for i, c := range b.Categories {
		cs := CategoryStatus{
			Name:      c.Name,
			Type:      c.Type,
			Budgeted:  c.BudgetedAmount,
			Actual:    actuals[i],
			Percent:   percentOf(actuals[i], c.BudgetedAmount),
			DailyRate: actuals[i].Div(activeDays),
			Sources:   sortedStrings(sources[i]),
		}
		cs.Remaining, cs.OverBudget = delta(cs.Budgeted, cs.Actual)
		status.Categories = append(status.Categories, cs)
		status.TotalBudgeted = status.TotalBudgeted.Add(cs.Budgeted)
		status.TotalActual = status.TotalActual.Add(cs.Actual)

		bucket, ok := buckets[c.Type]
		if !ok {
			bucket = &BucketStatus{Type: c.Type}
			buckets[c.Type] = bucket
		}
		bucket.Budgeted = bucket.Budgeted.Add(cs.Budgeted)
		bucket.Actual = bucket.Actual.Add(cs.Actual)
		bucket.Categories = append(bucket.Categories, cs)
	}
	status.Remaining, status.OverBudget = delta(status.TotalBudgeted, status.TotalActual)

	for _, t := range orderedTypes(buckets) {
		bucket := buckets[t]
		bucket.Remaining, bucket.OverBudget = delta(bucket.Budgeted, bucket.Actual)
		bucket.Percent = percentOf(bucket.Actual, bucket.Budgeted)
		bucket.DailyRate = bucket.Actual.Div(activeDays)
		status.Buckets = append(status.Buckets, *bucket)
	}
	return status
}

// ProrateBudget compares the budget, converted to display and scaled to the
// length of p, with all spending in p.
//
// The monthly total is divided by the number of days in the month p starts in
// and multiplied by the number of days p covers.
func ProrateBudget(b Budget, expenses []Transaction, conv Converter, res CurrencyResolver, display string, p Period) SpendingStatus {
	monthly := conv.Convert(b.TotalBudgeted(), b.Currency, display)
	daysInMonth := decimal.NewFromInt(int64(MonthOf(p.Start).Days()))
	s := SpendingStatus{
		Currency: display,
		Budgeted: monthly.Div(daysInMonth).Mul(decimal.NewFromInt(int64(p.Days()))),
		Actual:   TotalSpent(expenses, conv, res, display),
	}
	s.Remaining, s.OverBudget = delta(s.Budgeted, s.Actual)
	return s
}

// TotalSpent sums the absolute value of every expense in display currency.
func TotalSpent(expenses []Transaction, conv Converter, res CurrencyResolver, display string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if e.IsExpense() {
			total = total.Add(conv.Convert(e.Amount.Abs(), res.Currency(e), display))
		}
	}
	return total
}

// delta returns |budgeted-actual| and whether actual exceeds budgeted.
func delta(budgeted, actual decimal.Decimal) (decimal.Decimal, bool) {
	diff := budgeted.Sub(actual)
	return diff.Abs(), diff.IsNegative()
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

func orderedTypes(buckets map[CategoryType]*BucketStatus) []CategoryType {
	out := make([]CategoryType, 0, len(buckets))
	for _, t := range BucketOrder {
		if _, ok := buckets[t]; ok {
			out = append(out, t)
		}
	}
	var extra []string
	for t := range buckets {
		if !t.Valid() {
			extra = append(extra, string(t))
		}
	}
	for _, t := range sortedStrings(extra) {
		out = append(out, CategoryType(t))
	}
	return out
}
