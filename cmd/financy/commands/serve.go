package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"financy/internal/cli"
	apphttp "financy/internal/http"
	"financy/internal/log"
)

// serve: run the JSON report server until SIGINT or SIGTERM.
func serveCmd(e *env) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reports as JSON over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := e.app
			logger := app.Logger
			if addr == "" {
				addr = ":" + app.Config.Port
			}

			exporter, err := app.NewExporter(cmd.Context())
			if err != nil {
				return err
			}
			editor := app.NewEditor()

			checks := make(map[string]apphttp.ReadyCheck)
			for name, check := range app.ReadyChecks() {
				checks[name] = check
			}

			srv := apphttp.NewServer(apphttp.Config{
				Addr:           addr,
				RateLimitRPM:   app.Config.RateLimitRPM,
				TrustedProxies: app.Config.TrustedProxies,
				Logger:         logger,
			}, apphttp.Dependencies{
				Reports:     app.Reports,
				Rates:       app.Rates,
				Editor:      editor,
				Exporter:    exporter,
				Caches:      app.Caches,
				ReadyChecks: checks,
			})
			app.Caches.StartCleanup(10 * time.Minute)

			parent, stop := context.WithCancel(cmd.Context())
			defer stop()
			ctx, done := cli.GracefulShutdown(parent, logger, 30*time.Second, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					logger.Error("Server shutdown error", log.FieldError, err)
				}
				if err := editor.Close(ctx); err != nil {
					logger.Error("Budget drafts not saved", log.FieldError, err)
				}
			})

			logger.Info("Starting financy server",
				"addr", addr,
				log.FieldBackend, app.BackendConfig.Type,
				log.FieldCurrency, app.Config.DisplayCurrency)

			serveErr := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Server error", log.FieldError, err, "addr", addr)
					serveErr <- err
					stop()
				}
			}()

			cli.WaitForShutdown(ctx, done)
			select {
			case err := <-serveErr:
				return err
			default:
				logger.Info("Server stopped gracefully")
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :PORT)")
	return cmd
}
