package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBreakdownExpenses(t *testing.T) {
	res := NewCurrencyResolver([]Account{{AccountID: 1, CurrencyCode: "EUR"}, {AccountID: 2, CurrencyCode: "USD"}})
	conv := PairRates{"USD_EUR": dec("0.5")}
	groceries := expense(1, 1, "Groceries", "-30", "2024-03-01")
	groceries.Merchant = "Lidl"
	dinner := expense(2, 2, "Restaurants", "-40", "2024-03-02")
	dinner.Merchant = "Diner"
	misc := expense(3, 1, "", "-50", "2024-03-03")
	salary := Transaction{TransactionID: 4, AccountID: 1, Amount: dec("1000"), TransactionType: Income}
	txs := []Transaction{groceries, dinner, misc, salary}

	tests := []struct {
		by     GroupBy
		labels []string
		values []string
	}{
		{ByCategory, []string{"Groceries", "Restaurants", "Uncategorized"}, []string{"30", "20", "50"}},
		{ByCurrency, []string{"EUR", "USD"}, []string{"80", "20"}},
		{ByMerchant, []string{"Diner", "Lidl", "Unknown"}, []string{"20", "30", "50"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.by), func(t *testing.T) {
			b := BreakdownExpenses(txs, tt.by, conv, res, "EUR")
			if len(b.Slices) != len(tt.labels) {
				t.Fatalf("expected %d slices, got %+v", len(tt.labels), b.Slices)
			}
			sum := decimal.Zero
			for i, s := range b.Slices {
				if s.Label != tt.labels[i] {
					t.Errorf("label[%d] = %q, want %q", i, s.Label, tt.labels[i])
				}
				if !s.Value.Equal(dec(tt.values[i])) {
					t.Errorf("value[%d] = %s, want %s", i, s.Value, tt.values[i])
				}
				sum = sum.Add(s.Value)
			}
			if !b.Total.Equal(dec("100")) || !sum.Equal(b.Total) {
				t.Errorf("total = %s, sum = %s", b.Total, sum)
			}
		})
	}

	b := BreakdownExpenses(txs, ByCategory, conv, res, "EUR")
	if !b.Slices[2].Percent.Equal(dec("50")) || b.Slices[0].Count != 1 {
		t.Errorf("unexpected slice %+v", b.Slices[2])
	}
}

func TestBreakdownPercentRounding(t *testing.T) {
	txs := []Transaction{
		expense(1, 1, "A", "-1", "2024-03-01"),
		expense(2, 1, "B", "-2", "2024-03-01"),
	}
	b := BreakdownExpenses(txs, ByCategory, PairRates{}, CurrencyResolver{}, "EUR")
	if got := b.Slices[0].Percent.String(); got != "33.3" {
		t.Errorf("percent = %s, want 33.3", got)
	}
	if empty := BreakdownExpenses(nil, ByCategory, PairRates{}, CurrencyResolver{}, "EUR"); !empty.Total.IsZero() || len(empty.Slices) != 0 {
		t.Errorf("empty breakdown = %+v", empty)
	}
}

func TestSummarizeTrips(t *testing.T) {
	a := expense(1, 1, "Hotel", "-300", "2024-03-01")
	a.TripID = 1
	b := expense(2, 1, "Food", "-50", "2024-03-04")
	b.TripID = 1
	c := expense(3, 1, "Flight", "-500", "2024-02-20")
	c.TripID = 2
	d := expense(4, 1, "Coffee", "-3", "2024-03-05")

	trips := SummarizeTrips([]Transaction{a, b, c, d}, []Trip{{TripID: 1, TripName: "Lisbon"}}, PairRates{}, CurrencyResolver{}, "EUR")
	if len(trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(trips))
	}
	if trips[0].TripID != 2 || trips[0].Label != "Trip 2" || !trips[0].Total.Equal(dec("500")) {
		t.Errorf("first trip = %+v", trips[0])
	}
	if trips[1].Label != "Lisbon" || trips[1].Count != 2 || trips[1].LatestDate.String() != "2024-03-04" {
		t.Errorf("second trip = %+v", trips[1])
	}
}

func TestCumulativeSpending(t *testing.T) {
	first, _ := ParseDate("2024-03-01")
	p := NewPeriod(first, first.AddDays(4))
	txs := []Transaction{
		expense(1, 1, "A", "-10", "2024-03-01"),
		expense(2, 1, "A", "-5", "2024-03-01"),
		expense(3, 1, "B", "-20", "2024-03-03"),
		expense(4, 1, "C", "-99", "2024-03-06"),
	}
	s := CumulativeSpending(txs, p, PairRates{}, CurrencyResolver{}, "EUR")
	if len(s.Points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(s.Points))
	}
	want := []string{"15", "15", "35", "35", "35"}
	for i, pt := range s.Points {
		if !pt.Cumulative.Equal(dec(want[i])) {
			t.Errorf("point %d cumulative = %s, want %s", i, pt.Cumulative, want[i])
		}
	}
	if !s.Total.Equal(dec("35")) {
		t.Errorf("total = %s", s.Total)
	}

	prev := CumulativeSpending(txs, p.Previous(), PairRates{}, CurrencyResolver{}, "EUR")
	if len(prev.Points) != 5 || !prev.Total.IsZero() {
		t.Errorf("previous period = %+v", prev)
	}
}

func TestComparePeriods(t *testing.T) {
	series := MonthlySeries(Month{Year: 2024, Month: 3}, 1, 3, 0)
	txs := []Transaction{
		expense(1, 1, "A", "-10", "2024-01-15"),
		expense(2, 1, "A", "-20", "2024-03-01"),
		expense(3, 1, "A", "-30", "2024-03-31"),
		expense(4, 1, "A", "-99", "2023-12-31"),
	}
	bars := ComparePeriods(txs, series, PairRates{}, CurrencyResolver{}, "EUR")
	want := []string{"10", "0", "50"}
	for i, b := range bars {
		if !b.Total.Equal(dec(want[i])) {
			t.Errorf("%s total = %s, want %s", b.Label, b.Total, want[i])
		}
	}
	if bars[2].Count != 2 || !bars[2].Current {
		t.Errorf("current bar = %+v", bars[2])
	}
}

func TestSummarizeCashFlow(t *testing.T) {
	txs := []Transaction{
		{Amount: dec("1000"), TransactionType: Income},
		{Amount: dec("-250"), TransactionType: Expense},
		{Amount: dec("-500"), TransactionType: Transfer},
	}
	cf := SummarizeCashFlow(txs, PairRates{}, CurrencyResolver{}, "EUR")
	if !cf.MoneyIn.Equal(dec("1000")) || !cf.MoneyOut.Equal(dec("250")) || !cf.Net.Equal(dec("750")) {
		t.Errorf("cash flow = %+v", cf)
	}
}

func TestFilterTransactions(t *testing.T) {
	a := expense(1, 1, "Food", "-10", "2024-03-01")
	a.TripID = 3
	b := expense(2, 2, "Food", "-10", "2024-03-10")
	c := expense(3, 1, "Rent", "-10", "2024-04-01")
	txs := []Transaction{a, b, c}

	start, _ := ParseDate("2024-03-01")
	end, _ := ParseDate("2024-03-31")
	tests := []struct {
		name string
		f    TransactionFilter
		want []int64
	}{
		{"all", TransactionFilter{}, []int64{1, 2, 3}},
		{"account", TransactionFilter{AccountID: 1}, []int64{1, 3}},
		{"category", TransactionFilter{Category: "Food"}, []int64{1, 2}},
		{"range", TransactionFilter{StartDate: start, EndDate: end}, []int64{1, 2}},
		{"trip", TransactionFilter{TripID: 3}, []int64{1}},
		{"type", TransactionFilter{TransactionType: Income}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTransactions(txs, tt.f)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transactions, want %d", len(got), len(tt.want))
			}
			for i, tx := range got {
				if tx.TransactionID != tt.want[i] {
					t.Errorf("got id %d at %d, want %d", tx.TransactionID, i, tt.want[i])
				}
			}
		})
	}
}

func TestCompareSpending(t *testing.T) {
	tests := []struct {
		name              string
		current, previous string
		percent           string
		up                bool
		none              bool
	}{
		{name: "up", current: "150", previous: "30", percent: "400", up: true},
		{name: "down", current: "75", previous: "100", percent: "25"},
		{name: "flat", current: "100", previous: "100", percent: "0"},
		{name: "nothing before", current: "80", previous: "0", percent: "0"},
		{name: "rounded", current: "10", previous: "3", percent: "233.3", up: true},
		{name: "nothing spent", current: "0", previous: "0", none: true},
		{name: "nothing spent now", current: "0", previous: "40", none: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareSpending(dec(tt.current), dec(tt.previous))
			if tt.none {
				if got != nil {
					t.Errorf("CompareSpending() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("CompareSpending() = nil")
			}
			if !got.Percent.Equal(dec(tt.percent)) || got.Up != tt.up {
				t.Errorf("CompareSpending() = %s%% up=%v, want %s%% up=%v", got.Percent, got.Up, tt.percent, tt.up)
			}
		})
	}
}
