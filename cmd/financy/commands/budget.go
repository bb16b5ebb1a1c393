package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"financy/internal/core"
	"financy/internal/sheets"
)

func budgetCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show or edit a budget",
	}
	cmd.AddCommand(budgetShowCmd(e), budgetEditCmd(e))
	return cmd
}

func parseBudgetID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid budget id %q", raw)
	}
	return id, nil
}

// budget show <id>: the planned split of a budget.
func budgetShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the needs/wants/savings plan of a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBudgetID(args[0])
			if err != nil {
				return err
			}
			totals, err := e.app.Reports.BudgetPlan(cmd.Context(), id)
			if err != nil {
				return err
			}
			return e.print(totals, func() error {
				return e.printTable(budgetPlanTable(id, totals))
			})
		},
	}
}

func budgetPlanTable(id int64, t core.BudgetTotals) sheets.Table {
	row := func(name, amount, share string) []string { return []string{name, amount, share} }
	return sheets.Table{
		Title:  fmt.Sprintf("Budget %d (%s)", id, t.Currency),
		Header: []string{"Group", "Amount", "Share"},
		Rows: [][]string{
			row("Income", core.FormatCurrency(t.Income, t.Currency), ""),
			row("Needs", core.FormatCurrency(t.Needs, t.Currency), t.NeedsPercent.StringFixed(1)+"%"),
			row("Wants", core.FormatCurrency(t.Wants, t.Currency), t.WantsPercent.StringFixed(1)+"%"),
			row("Savings", core.FormatCurrency(t.Savings, t.Currency), t.SavingsPercent.StringFixed(1)+"%"),
			row("Total", core.FormatCurrency(t.Total, t.Currency), ""),
			row("Remaining", core.FormatCurrency(t.Remaining, t.Currency), ""),
		},
	}
}

// budget edit <id>: apply a partial update through the debounced editor.
func budgetEditCmd(e *env) *cobra.Command {
	var (
		name     string
		currency string
		file     string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update a budget's name, currency, income sources or categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBudgetID(args[0])
			if err != nil {
				return err
			}
			var u core.BudgetUpdate
			if file != "" {
				if u, err = readBudgetUpdate(file); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("name") {
				u.Name = &name
			}
			if cmd.Flags().Changed("currency") {
				code := strings.ToUpper(currency)
				u.Currency = &code
			}
			if u.IsEmpty() {
				return errors.New("nothing to update: pass --name, --currency or --file")
			}

			editor := e.app.NewEditor()
			if err := editor.Apply(id, u); err != nil {
				return err
			}
			if err := editor.Close(cmd.Context()); err != nil {
				return err
			}
			saved, ok := editor.Saved(id)
			if !ok {
				return fmt.Errorf("budget %d was not saved", id)
			}
			return e.print(saved, func() error {
				fmt.Fprintf(e.out, "saved budget %d %q (%s, %d categories)\n",
					saved.BudgetID, saved.Name, saved.Currency, len(saved.Categories))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new budget name")
	cmd.Flags().StringVar(&currency, "currency", "", "new budget currency")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with a partial update (name, currency, income_sources, categories)")
	return cmd
}

func readBudgetUpdate(path string) (core.BudgetUpdate, error) {
	var u core.BudgetUpdate
	raw, err := os.ReadFile(path)
	if err != nil {
		return u, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		return u, fmt.Errorf("decode %s: %w", path, err)
	}
	return u, nil
}
