package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Converter converts an amount between two currency codes.
// Implementations return the amount unchanged when they have no rate for the pair.
type Converter interface {
	Convert(amount decimal.Decimal, from, to string) decimal.Decimal
}

// PairRates holds direct rates keyed "FROM_TO". Zero or negative rates count as missing.
type PairRates map[string]decimal.Decimal

// PairKey builds the PairRates key for a conversion.
func PairKey(from, to string) string { return from + "_" + to }

func (r PairRates) Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	if from == to {
		return amount
	}
	rate, ok := r[PairKey(from, to)]
	if !ok || !rate.IsPositive() {
		return amount
	}
	return amount.Mul(rate)
}

// RateTable is a base-currency table: Rates[c] is how many units of c one unit of
// Base buys. The base currency itself always has rate 1.
type RateTable struct {
	Base  string                     `json:"base_currency"`
	Rates map[string]decimal.Decimal `json:"rates"`
	Date  *Date                      `json:"date,omitempty"`
}

// NewRateTable builds a table from a backend response. An empty base means EUR.
func NewRateTable(r ExchangeRates) RateTable {
	base := strings.ToUpper(r.BaseCurrency)
	if base == "" {
		base = DefaultCurrency
	}
	rates := make(map[string]decimal.Decimal, len(r.Rates)+1)
	for code, v := range r.Rates {
		rates[strings.ToUpper(code)] = v
	}
	rates[base] = decimal.NewFromInt(1)
	return RateTable{Base: base, Rates: rates, Date: r.Date}
}

// FallbackRates is the EUR table used when live rates cannot be loaded.
func FallbackRates() RateTable {
	return RateTable{
		Base: "EUR",
		Rates: map[string]decimal.Decimal{
			"EUR": decimal.NewFromInt(1),
			"GBP": decimal.RequireFromString("0.86"),
			"USD": decimal.RequireFromString("1.08"),
			"CHF": decimal.RequireFromString("0.96"),
			"CAD": decimal.RequireFromString("1.46"),
		},
	}
}

func (t RateTable) rate(code string) (decimal.Decimal, bool) {
	if code == t.Base {
		return decimal.NewFromInt(1), true
	}
	r, ok := t.Rates[code]
	if !ok || !r.IsPositive() {
		return decimal.Zero, false
	}
	return r, true
}

// Has reports whether the table can convert code.
func (t RateTable) Has(code string) bool {
	_, ok := t.rate(code)
	return ok
}

func (t RateTable) Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	if from == to {
		return amount
	}
	fromRate, ok := t.rate(from)
	if !ok {
		return amount
	}
	toRate, ok := t.rate(to)
	if !ok {
		return amount
	}
	return amount.Div(fromRate).Mul(toRate)
}

// Rebase expresses the table against another of its currencies. It reports false
// when base has no rate in the table.
func (t RateTable) Rebase(base string) (RateTable, bool) {
	base = strings.ToUpper(base)
	if base == t.Base {
		return t, true
	}
	pivot, ok := t.rate(base)
	if !ok {
		return RateTable{}, false
	}
	rates := make(map[string]decimal.Decimal, len(t.Rates)+1)
	rates[t.Base] = decimal.NewFromInt(1).Div(pivot)
	for code, r := range t.Rates {
		if r.IsPositive() {
			rates[code] = r.Div(pivot)
		}
	}
	rates[base] = decimal.NewFromInt(1)
	return RateTable{Base: base, Rates: rates, Date: t.Date}, true
}

// ExchangeRates converts the table back to its wire form.
func (t RateTable) ExchangeRates() ExchangeRates {
	rates := make(map[string]decimal.Decimal, len(t.Rates))
	for code, r := range t.Rates {
		rates[code] = r
	}
	return ExchangeRates{BaseCurrency: t.Base, Rates: rates, Date: t.Date}
}

// Pairs expands the table into direct rates between every pair of its currencies.
func (t RateTable) Pairs() PairRates {
	out := make(PairRates, len(t.Rates)*len(t.Rates))
	one := decimal.NewFromInt(1)
	for from := range t.Rates {
		for to := range t.Rates {
			if from != to {
				out[PairKey(from, to)] = t.Convert(one, from, to)
			}
		}
	}
	return out
}

// CurrencyResolver decides which currency a transaction is denominated in: its own
// code, else its account's, else Default.
type CurrencyResolver struct {
	Accounts map[int64]string
	Default  string
}

// NewCurrencyResolver indexes account currencies.
func NewCurrencyResolver(accounts []Account) CurrencyResolver {
	m := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		if a.CurrencyCode != "" {
			m[a.AccountID] = a.CurrencyCode
		}
	}
	return CurrencyResolver{Accounts: m, Default: DefaultCurrency}
}

func (r CurrencyResolver) Currency(t Transaction) string {
	if t.CurrencyCode != "" {
		return t.CurrencyCode
	}
	if c, ok := r.Accounts[t.AccountID]; ok {
		return c
	}
	if r.Default != "" {
		return r.Default
	}
	return DefaultCurrency
}
