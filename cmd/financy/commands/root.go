package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"financy/internal/backend"
	"financy/internal/cli"
	"financy/internal/log"
)

// env is what the subcommands share: the assembled app and the output settings.
type env struct {
	app    *cli.App
	out    io.Writer
	asJSON bool
}

func Execute() error {
	err := Run(context.Background(), os.Stdout, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// Run executes the command line args, printing results to out.
func Run(ctx context.Context, out io.Writer, args []string) error {
	e := &env{out: out}
	root := newRoot(e)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if e.app != nil {
		err = errors.Join(err, e.app.Close())
	}
	return err
}

func newRoot(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "financy",
		Short:         "Budget and spending reports over the finance API",
		Long: "Budget and spending reports over the finance API.\n\n" +
			"Settings come from the environment or a .env file. DATA_BACKEND picks the data source (" +
			strings.Join(backend.GetBackendTypeStrings(), ", ") + ").",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg, log.ComponentCLI, os.Stderr)
			e.app, err = cli.NewApp(cmd.Context(), cfg, logger)
			return err
		},
	}

	root.PersistentFlags().BoolVar(&e.asJSON, "json", false, "print JSON instead of tables")
	root.SetOut(e.out)

	root.AddCommand(
		periodCmd(e),
		convertCmd(e),
		budgetCmd(e),
		reportCmd(e),
		syncCmd(e),
		serveCmd(e),
		exportCmd(e),
	)
	return root
}
