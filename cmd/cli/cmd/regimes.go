package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/netcost/internal/money"
	"github.com/noah-isme/netcost/internal/taxcredit"
)

func newRegimesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regimes",
		Short: "List the supported tax regimes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tLABEL\tCREDIT RATE")
			for _, r := range taxcredit.Regimes() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.String(), r.Label(), money.FormatPercent(r.Rate()))
			}
			return tw.Flush()
		},
	}
}
