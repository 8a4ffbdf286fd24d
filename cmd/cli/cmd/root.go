// Package cmd provides the CLI commands for netcost.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/netcost/internal/obs"
)

// Version is set at build time with -ldflags.
var Version = "0.1.0"

type rootOptions struct {
	verbose   bool
	logFormat string
	logger    zerolog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "netcost",
		Short: "Net acquisition cost after PIS/COFINS credits",
		Long: `netcost computes the net acquisition cost of a purchase once the
PIS/COFINS credits allowed by the company's tax regime are deducted.

Examples:
  netcost calc --amount 1.000,00
  netcost calc --amount 500 --regime cumulative --json
  netcost regimes`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			opts.logger = obs.NewLoggerTo(cmd.ErrOrStderr(), opts.logFormat, level)
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "console", "log format (console or json)")

	root.AddCommand(newCalcCmd(opts))
	root.AddCommand(newRegimesCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "netcost version %s\n", Version)
		},
	})
	return root
}

// Execute runs the CLI.
func Execute() error {
	root := NewRootCmd()
	root.SetErr(os.Stderr)
	return root.Execute()
}
