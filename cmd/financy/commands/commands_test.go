package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"financy/internal/core"
	"financy/internal/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func writeSeed(t *testing.T) string {
	t.Helper()
	rateDate := core.NewDate(2024, 3, 1)
	seed := memory.Seed{
		Accounts: []core.Account{
			{AccountID: 1, AccountName: "Checking", CurrencyCode: "EUR"},
			{AccountID: 2, AccountName: "Monzo", CurrencyCode: "GBP"},
		},
		Transactions: []core.Transaction{
			{TransactionID: 1, AccountID: 1, Amount: dec("100"), TransactionType: core.Expense, Category: "Groceries", TransactionDate: core.NewDate(2024, 3, 5)},
			{TransactionID: 2, AccountID: 2, Amount: dec("40"), TransactionType: core.Expense, Category: "Dining", TransactionDate: core.NewDate(2024, 3, 10), TripID: 3},
			{TransactionID: 3, AccountID: 1, Amount: dec("2000"), TransactionType: core.Income, Category: "Salary", TransactionDate: core.NewDate(2024, 3, 1)},
		},
		Trips: []core.Trip{{TripID: 3, TripName: "Lisbon"}},
		Budgets: []core.Budget{{
			BudgetID: 7,
			Name:     "Home",
			Currency: "EUR",
			Categories: []core.BudgetCategory{
				{Name: "Groceries", BudgetedAmount: dec("300"), Type: core.Needs},
				{Name: "Eating Out", BudgetedAmount: dec("100"), Type: core.Wants, MappedExpenseCategories: []string{"Dining"}},
			},
		}},
		Rates: []core.ExchangeRates{{
			BaseCurrency: "EUR",
			Rates:        map[string]decimal.Decimal{"GBP": dec("0.8"), "USD": dec("1.25")},
			Date:         &rateDate,
		}},
	}
	raw, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SEED_FILE", writeSeed(t))
	t.Setenv("EVENTS_BACKEND", "none")
	t.Setenv("DISPLAY_CURRENCY", "EUR")
	t.Setenv("PERIOD_FREQUENCY", "monthly")
	t.Setenv("PERIOD_START_DAY", "1")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(context.Background(), &out, args)
	return out.String(), err
}

func TestTextCommands(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "period",
			args: []string{"period", "--month", "2024-02", "--start-day", "15"},
			want: []string{"15th Feb - 14th Mar (monthly)", "29 days", "previous 2024-01"},
		},
		{
			name: "convert",
			args: []string{"convert", "8", "gbp", "USD"},
			want: []string{"= $ 12.50"},
		},
		{
			name: "budget show",
			args: []string{"budget", "show", "7"},
			want: []string{"Budget 7 (EUR)", "Needs", "300.00"},
		},
		{
			name: "trips",
			args: []string{"report", "trips", "--month", "2024-03"},
			want: []string{"Lisbon", "50.00"},
		},
		{
			name: "budget status",
			args: []string{"report", "budget-status", "--month", "2024-03", "--budget", "7"},
			want: []string{"Groceries", "Eating Out"},
		},
		{
			name: "export",
			args: []string{"export", "summary", "--month", "2024-03"},
			want: []string{"Reports 2024-03!A1:", "1st Mar - 31st Mar"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("run %v: %v", tt.args, err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestReportSummaryJSON(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "report", "summary", "--month", "2024-03", "--budget", "7", "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var sum core.PeriodSummary
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !sum.CashFlow.MoneyIn.Equal(dec("2000")) || !sum.CashFlow.MoneyOut.Equal(dec("150")) {
		t.Errorf("cash flow = %+v", sum.CashFlow)
	}
	if sum.Budget == nil {
		t.Error("expected a budget comparison")
	}
}

func TestBudgetEdit(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "budget", "edit", "7", "--name", "Household", "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var saved core.Budget
	if err := json.Unmarshal([]byte(out), &saved); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if saved.Name != "Household" || len(saved.Categories) != 2 {
		t.Errorf("saved = %+v", saved)
	}

	update := filepath.Join(t.TempDir(), "update.json")
	if err := os.WriteFile(update, []byte(`{"currency":"GBP"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "budget", "edit", "7", "-f", update)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, `"Home" (GBP, 2 categories)`) {
		t.Errorf("output = %q", out)
	}
}

func TestCommandErrors(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no update", []string{"budget", "edit", "7"}, "nothing to update"},
		{"bad budget id", []string{"budget", "show", "abc"}, "invalid budget id"},
		{"unknown budget", []string{"budget", "show", "99"}, "not found"},
		{"bad month", []string{"period", "--month", "March"}, "month"},
		{"bad currency", []string{"convert", "1", "EURO", "USD"}, "currency"},
		{"bad export kind", []string{"export", "pie"}, "pie"},
		{"queue without amqp", []string{"sync", "--queue"}, "EVENTS_BACKEND=amqp"},
		{"bad date", []string{"sync", "--since", "yesterday"}, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("DATA_BACKEND", "postgres")

	_, err := run(t, "period")
	if err == nil || !strings.Contains(err.Error(), "invalid data backend") {
		t.Errorf("error = %v", err)
	}
}

func TestHelpListsBackends(t *testing.T) {
	out, err := run(t, "--help")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "(api, sqlite, memory)") {
		t.Errorf("help output missing backends:\n%s", out)
	}
}
