package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/noah-isme/netcost/internal/calculator"
	"github.com/noah-isme/netcost/internal/common"
)

func newCalcCmd(opts *rootOptions) *cobra.Command {
	var (
		amount     string
		regime     string
		asJSON     bool
		legacyMode bool
	)

	c := &cobra.Command{
		Use:   "calc",
		Short: "Calculate the net cost of a purchase",
		Long: `Calculate the net acquisition cost for a purchase.

The amount accepts "1234.56", "1234,56", "1.234,56" and "R$ 1.234,56".
The regime accepts a code (non_cumulative, cumulative) or its label.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := opts.logger.WithContext(cmd.Context())
			service := calculator.NewService(calculator.ServiceConfig{LegacyRegimeFallback: legacyMode})

			result, err := service.CalculateInput(ctx, amount, regime)
			if err != nil {
				if appErr, ok := common.AsAppError(err); ok && calculator.IsValidationError(err) {
					opts.logger.Debug().Err(appErr.Err).Str("code", appErr.Code).Msg("calculation rejected")
					return errors.New(appErr.Message)
				}
				return fmt.Errorf("calculate: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			writeResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	c.Flags().StringVarP(&amount, "amount", "a", "", "acquisition value paid to the supplier (required)")
	c.Flags().StringVarP(&regime, "regime", "r", "non_cumulative", "tax regime of the company")
	c.Flags().BoolVar(&asJSON, "json", false, "output the result as JSON")
	c.Flags().BoolVar(&legacyMode, "legacy-regime-fallback", false, "treat unknown regimes as cumulative")
	_ = c.MarkFlagRequired("amount")
	return c
}

func writeResult(w io.Writer, r calculator.Result) {
	fmt.Fprintf(w, "Regime:                          %s\n", r.RegimeLabel)
	fmt.Fprintf(w, "Custo de Aquisição (Bruto):      %s\n", r.Display.GrossCost)
	fmt.Fprintf(w, "Crédito Total de PIS/COFINS:     %s\n", r.Display.TotalCredit)
	fmt.Fprintf(w, "  %s\n", r.Display.CreditDetail)
	fmt.Fprintf(w, "CUSTO MÉDIO LÍQUIDO (CUSTO REAL): %s\n", r.Display.NetCost)
	fmt.Fprintln(w)
	fmt.Fprintln(w, calculator.MsgNetCostHint)
	fmt.Fprintln(w, r.Notice.Text)
}
