package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"financy/internal/core"
)

type conversion struct {
	Amount        decimal.Decimal `json:"amount"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Converted     decimal.Decimal `json:"converted"`
	RatesFallback bool            `json:"rates_fallback,omitempty"`
}

// convert <amount> <from> <to>: convert with the latest rate table.
func convertCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <amount> <from> <to>",
		Short: "Convert an amount between currencies",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", core.ErrInvalidAmount, args[0])
			}
			from, to := strings.ToUpper(args[1]), strings.ToUpper(args[2])
			for _, code := range []string{from, to} {
				if !core.ValidCurrency(code) {
					return fmt.Errorf("%w: %q", core.ErrInvalidCurrency, code)
				}
			}

			converted, fallback := e.app.Rates.Convert(cmd.Context(), amount, from, to)
			c := conversion{Amount: amount, From: from, To: to, Converted: converted.Round(2), RatesFallback: fallback}
			return e.print(c, func() error {
				fmt.Fprintf(e.out, "%s = %s\n", core.FormatCurrency(amount, from), core.FormatCurrency(c.Converted, to))
				if fallback {
					fmt.Fprintln(e.out, "live rates unavailable, fallback table used")
				}
				return nil
			})
		},
	}
}
