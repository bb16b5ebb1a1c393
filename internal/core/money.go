// Package core provides money parsing and formatting utilities.
//
// This file contains functions for parsing monetary amounts from user input
// and rendering them with a currency symbol the way the dashboards show them.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"CHF": "Fr.",
	"CAD": "C$",
}

var amountPrinter = message.NewPrinter(language.AmericanEnglish)

// ParseAmount converts a user supplied decimal string into an amount rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an optional
// leading sign. Thousands separators are not accepted.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil (half-up on the third decimal)
//	ParseAmount("-7")     -> -7, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	body := strings.TrimLeft(s, "+-")
	if len(s)-len(body) > 1 || body == "" || strings.Count(body, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range body {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// CurrencySymbol returns the display symbol for code, or the code itself when unknown.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return code
}

// FormatAmount renders the absolute value with en-US grouping and two decimals.
func FormatAmount(amount decimal.Decimal) string {
	f, _ := amount.Abs().Round(2).Float64()
	return amountPrinter.Sprint(number.Decimal(f, number.Scale(2)))
}

// FormatCurrency renders "<symbol> <amount>", e.g. "€ 1,234.50".
// Signs are dropped; callers show direction separately.
func FormatCurrency(amount decimal.Decimal, code string) string {
	return CurrencySymbol(code) + " " + FormatAmount(amount)
}
