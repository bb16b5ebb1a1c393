package sheets

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"financy/internal/core"
)

var summaryHeader = []string{"Section", "Item", "Amount", "Count", "Percent"}

func amount(d decimal.Decimal) string { return d.StringFixed(2) }

// SummaryTable flattens a period summary into one grid: cash flow, the spending
// breakdown, trips and, when a budget was selected, its categories.
func SummaryTable(s core.PeriodSummary) Table {
	t := Table{
		Title:  fmt.Sprintf("%s (%s, %s)", s.Label, s.Frequency, s.Currency),
		Header: summaryHeader,
	}
	t.Rows = append(t.Rows,
		[]string{"Cash flow", "Money in", amount(s.CashFlow.MoneyIn), "", ""},
		[]string{"Cash flow", "Money out", amount(s.CashFlow.MoneyOut), "", ""},
		[]string{"Cash flow", "Net", amount(s.CashFlow.Net), "", ""},
	)
	for _, slice := range s.Breakdown.Slices {
		t.Rows = append(t.Rows, []string{
			"Spending by " + string(s.Breakdown.GroupBy),
			slice.Label,
			amount(slice.Value),
			strconv.Itoa(slice.Count),
			amount(slice.Percent),
		})
	}
	for _, trip := range s.Trips {
		t.Rows = append(t.Rows, []string{"Trips", trip.Label, amount(trip.Total), strconv.Itoa(trip.Count), ""})
	}
	if s.Budget != nil {
		for _, c := range s.Budget.Categories {
			t.Rows = append(t.Rows, []string{"Budget " + string(c.Type), c.Name, amount(c.Actual), "", amount(c.Percent)})
		}
	}
	if s.Spending != nil {
		t.Rows = append(t.Rows,
			[]string{"Budget", "Prorated budget", amount(s.Spending.Budgeted), "", ""},
			[]string{"Budget", "Spent", amount(s.Spending.Actual), "", ""},
		)
	}
	if tr := s.Trend; tr != nil {
		pct := amount(tr.Percent)
		if tr.Up {
			pct = "+" + pct
		} else if tr.Percent.IsPositive() {
			pct = "-" + pct
		}
		t.Rows = append(t.Rows, []string{"Trend", "Previous period", amount(tr.Previous), "", pct})
	}
	return t
}

var statusHeader = []string{"Type", "Category", "Budgeted", "Actual", "Remaining", "Over budget", "Percent", "Daily rate"}

// BudgetStatusTable lists every budget category, then one total line per bucket.
func BudgetStatusTable(s core.BudgetStatus, label string) Table {
	t := Table{
		Title:  fmt.Sprintf("Budget %d, %s (%s)", s.BudgetID, label, s.Currency),
		Header: statusHeader,
	}
	for _, c := range s.Categories {
		t.Rows = append(t.Rows, []string{
			string(c.Type), c.Name,
			amount(c.Budgeted), amount(c.Actual), amount(c.Remaining),
			strconv.FormatBool(c.OverBudget), amount(c.Percent), amount(c.DailyRate),
		})
	}
	for _, b := range s.Buckets {
		t.Rows = append(t.Rows, []string{
			string(b.Type), "Total",
			amount(b.Budgeted), amount(b.Actual), amount(b.Remaining),
			strconv.FormatBool(b.OverBudget), amount(b.Percent), amount(b.DailyRate),
		})
	}
	t.Rows = append(t.Rows, []string{
		"", "Total",
		amount(s.TotalBudgeted), amount(s.TotalActual), amount(s.Remaining),
		strconv.FormatBool(s.OverBudget), "", "",
	})
	if s.Unbudgeted.IsPositive() {
		t.Rows = append(t.Rows, []string{"", "Unbudgeted", "", amount(s.Unbudgeted), "", "", "", ""})
	}
	return t
}
