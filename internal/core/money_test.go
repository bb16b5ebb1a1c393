package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{"12,345", "12.35", true},
		{"12.344", "12.34", true},
		{"-7", "-7", true},
		{"+3.5", "3.5", true},
		{"  0.01 ", "0.01", true},
		{"", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"--1", "", false},
		{"1e5", "", false},
		{"1,000.00", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tc.in, err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
			}
		} else if err == nil {
			t.Fatalf("ParseAmount(%q) expected error, got %s", tc.in, got)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		amount string
		code   string
		want   string
	}{
		{"0", "EUR", "€ 0.00"},
		{"-5.5", "USD", "$ 5.50"},
		{"1234.5", "EUR", "€ 1,234.50"},
		{"1234567.891", "GBP", "£ 1,234,567.89"},
		{"2", "CHF", "Fr. 2.00"},
		{"99.999", "CAD", "C$ 100.00"},
		{"1", "JPY", "JPY 1.00"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(dec(tc.amount), tc.code); got != tc.want {
			t.Errorf("FormatCurrency(%s, %s) = %q, want %q", tc.amount, tc.code, got, tc.want)
		}
	}
}

func TestValidCurrency(t *testing.T) {
	for _, ok := range []string{"EUR", "USD", "XAU"} {
		if !ValidCurrency(ok) {
			t.Errorf("%s should be valid", ok)
		}
	}
	for _, bad := range []string{"", "eur", "EU", "EURO", "E1R"} {
		if ValidCurrency(bad) {
			t.Errorf("%q should be invalid", bad)
		}
	}
}
