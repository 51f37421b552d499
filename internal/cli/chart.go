package cli

import (
	"github.com/spf13/cobra"
)

// NewChartCommand creates the chart command.
func NewChartCommand(rootOpts *RootOptions) *cobra.Command {
	var precision int

	cmd := &cobra.Command{
		Use:   "chart <country>",
		Short: "Print the GDP waterfall of a country",
		Long: `Print the GDP waterfall of a country: the base value of the first
valid year, then one increase or decrease per following valid year.

A country whose GDP values are all missing prints a notice and exits 0.
An unknown country exits 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()

			chart, err := s.service.Waterfall(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "build waterfall", err)
			}

			if !cmd.Flags().Changed("precision") {
				precision = s.cfg.Export.Precision
			}
			return NewPrinter(cmd.OutOrStdout(), rootOpts.JSON, rootOpts.Lang, precision).Chart(chart)
		},
	}

	cmd.Flags().IntVarP(&precision, "precision", "p", 2, "decimals shown for amounts")
	return cmd
}
