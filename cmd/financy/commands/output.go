package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"financy/internal/core"
	"financy/internal/services"
	"financy/internal/sheets"
)

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes t the way it lands in a sheet, with aligned columns.
func (e *env) printTable(t sheets.Table) error {
	tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	for _, row := range t.Values() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// print emits v as JSON with --json and runs text otherwise.
func (e *env) print(v any, text func() error) error {
	if e.asJSON || text == nil {
		return e.printJSON(v)
	}
	return text()
}

// reportFlags select the report window and currency.
type reportFlags struct {
	month     string
	frequency string
	startDay  int
	currency  string
	budgetID  int64
	accountID int64
	groupBy   string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.month, "month", "", "reference month YYYY-MM (default current month)")
	cmd.Flags().StringVar(&f.frequency, "frequency", "", "weekly or monthly (default PERIOD_FREQUENCY)")
	cmd.Flags().IntVar(&f.startDay, "start-day", 0, "first day of the cycle, 1-31 (default PERIOD_START_DAY)")
	cmd.Flags().StringVar(&f.currency, "currency", "", "display currency (default DISPLAY_CURRENCY)")
	cmd.Flags().Int64Var(&f.budgetID, "budget", 0, "budget id to compare against")
	cmd.Flags().Int64Var(&f.accountID, "account", 0, "only transactions of this account")
	cmd.Flags().StringVar(&f.groupBy, "group-by", "", "breakdown grouping: category, currency or merchant")
}

func (f *reportFlags) request() (services.ReportRequest, error) {
	req := services.ReportRequest{
		StartDay:  f.startDay,
		Currency:  strings.ToUpper(strings.TrimSpace(f.currency)),
		BudgetID:  f.budgetID,
		AccountID: f.accountID,
	}
	var err error
	if f.month != "" {
		if req.Month, err = core.ParseMonth(f.month); err != nil {
			return req, err
		}
	}
	if f.frequency != "" {
		if req.Frequency, err = core.ParseFrequency(f.frequency); err != nil {
			return req, err
		}
	}
	if f.groupBy != "" {
		if req.GroupBy, err = core.ParseGroupBy(f.groupBy); err != nil {
			return req, err
		}
	}
	return req, nil
}
