package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"financy/internal/services"
)

// period: show the reporting window of a month.
func periodCmd(e *env) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "period",
		Short: "Show the reporting window of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			if req, err = e.app.Reports.Normalize(req); err != nil {
				return err
			}
			info, err := services.DescribePeriod(req.Month, req.Frequency, req.StartDay)
			if err != nil {
				return err
			}
			return e.print(info, func() error {
				fmt.Fprintf(e.out, "%s (%s)\n", info.Label, info.Frequency)
				fmt.Fprintf(e.out, "from %s to %s, %d days\n",
					info.Period.Start.Format("2006-01-02"), info.Period.End.Format("2006-01-02"), info.Days)
				fmt.Fprintf(e.out, "previous %s, next %s\n", info.Previous, info.Next)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}
