package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"financy/internal/amqp"
	"financy/internal/core"
	"financy/internal/events"
)

// sync: refresh the local snapshot now, or queue the request for the worker.
func syncCmd(e *env) *cobra.Command {
	var (
		since string
		queue bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy backend data into the local snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var from core.Date
			if since != "" {
				d, err := core.ParseDate(since)
				if err != nil {
					return err
				}
				from = d
			}

			if queue {
				client, ok := e.app.Publisher.(*amqp.Client)
				if !ok {
					return errors.New("--queue needs EVENTS_BACKEND=amqp")
				}
				if err := client.RequestSync(cmd.Context(), events.SyncRequestedPayload{Since: from, Reason: "cli"}); err != nil {
					return err
				}
				fmt.Fprintln(e.out, "sync requested")
				return nil
			}

			svc, err := e.app.NewSyncService()
			if err != nil {
				return err
			}
			rep, err := svc.Sync(cmd.Context(), from)
			if err != nil {
				return err
			}
			return e.print(rep, func() error {
				fmt.Fprintf(e.out, "synced since %s in %s: %d accounts, %d trips, %d budgets, %d transactions, %d rate tables\n",
					rep.Since, rep.Duration().Round(time.Millisecond), rep.Accounts, rep.Trips, rep.Budgets, rep.Transactions, rep.Rates)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "first day to refresh, YYYY-MM-DD (default SYNC_LOOKBACK ago)")
	cmd.Flags().BoolVar(&queue, "queue", false, "publish a sync request for the worker instead of syncing here")
	return cmd
}
