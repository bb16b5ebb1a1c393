package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"financy/internal/services"
)

// export [summary|budget-status]: write a report to its sheet.
func exportCmd(e *env) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "export [summary|budget-status]",
		Short: "Write a report to the configured spreadsheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			}
			kind, err := services.ParseExportKind(raw)
			if err != nil {
				return err
			}
			req, err := flags.request()
			if err != nil {
				return err
			}
			exporter, err := e.app.NewExporter(cmd.Context())
			if err != nil {
				return err
			}
			res, err := exporter.Export(cmd.Context(), kind, req)
			if err != nil {
				return err
			}
			return e.print(res, func() error {
				fmt.Fprintf(e.out, "wrote %d rows to %s (%s)\n", res.Rows, res.Range, res.Label)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}
