package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"financy/internal/core"
	"financy/internal/services"
	"financy/internal/sheets"
)

func reportCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a dashboard report",
	}
	cmd.AddCommand(
		reportSubCmd(e, "summary", "Cash flow, breakdown and trips of a period",
			summaryText),
		reportSubCmd(e, "budget-status", "Budgeted against actual per category",
			budgetStatusText),
		reportSubCmd(e, "breakdown", "Spending grouped by category, currency or merchant",
			jsonOnly(func(s *services.ReportService) func(context.Context, services.ReportRequest) (core.Breakdown, error) {
				return s.Breakdown
			})),
		reportSubCmd(e, "comparison", "Spending against the previous period",
			jsonOnly(func(s *services.ReportService) func(context.Context, services.ReportRequest) (services.Comparison, error) {
				return s.Comparison
			})),
		reportSubCmd(e, "cumulative", "Day by day running spend of a period",
			jsonOnly(func(s *services.ReportService) func(context.Context, services.ReportRequest) (services.Cumulative, error) {
				return s.Cumulative
			})),
		reportSubCmd(e, "trips", "Spending per trip",
			tripsText),
	)
	return cmd
}

// reportRunner loads one report for req and prints it.
type reportRunner func(ctx context.Context, req services.ReportRequest) error

func reportSubCmd(e *env, use, short string, run func(*env) reportRunner) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			return run(e)(cmd.Context(), req)
		},
	}
	flags.register(cmd)
	return cmd
}

func jsonOnly[T any](pick func(*services.ReportService) func(context.Context, services.ReportRequest) (T, error)) func(*env) reportRunner {
	return func(e *env) reportRunner {
		return func(ctx context.Context, req services.ReportRequest) error {
			v, err := pick(e.app.Reports)(ctx, req)
			if err != nil {
				return err
			}
			return e.printJSON(v)
		}
	}
}

func summaryText(e *env) reportRunner {
	return func(ctx context.Context, req services.ReportRequest) error {
		s, err := e.app.Reports.Summary(ctx, req)
		if err != nil {
			return err
		}
		return e.print(s, func() error {
			if err := e.printTable(sheets.SummaryTable(s)); err != nil {
				return err
			}
			if s.RatesFallback {
				fmt.Fprintln(e.out, "live rates unavailable, fallback table used")
			}
			return nil
		})
	}
}

func budgetStatusText(e *env) reportRunner {
	return func(ctx context.Context, req services.ReportRequest) error {
		status, err := e.app.Reports.BudgetStatus(ctx, req)
		if err != nil {
			return err
		}
		return e.print(status, func() error {
			norm, err := e.app.Reports.Normalize(req)
			if err != nil {
				return err
			}
			info, err := services.DescribePeriod(norm.Month, norm.Frequency, norm.StartDay)
			if err != nil {
				return err
			}
			return e.printTable(sheets.BudgetStatusTable(status, info.Label))
		})
	}
}

func tripsText(e *env) reportRunner {
	return func(ctx context.Context, req services.ReportRequest) error {
		norm, err := e.app.Reports.Normalize(req)
		if err != nil {
			return err
		}
		trips, err := e.app.Reports.Trips(ctx, norm)
		if err != nil {
			return err
		}
		return e.print(trips, func() error {
			t := sheets.Table{
				Title:  "Trips (" + norm.Currency + ")",
				Header: []string{"Trip", "Total", "Expenses", "Latest"},
			}
			for _, trip := range trips {
				t.Rows = append(t.Rows, []string{
					trip.Label,
					core.FormatCurrency(trip.Total, norm.Currency),
					strconv.Itoa(trip.Count),
					trip.LatestDate.String(),
				})
			}
			return e.printTable(t)
		})
	}
}
