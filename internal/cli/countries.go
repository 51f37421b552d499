package cli

import (
	"github.com/spf13/cobra"
)

// NewCountriesCommand creates the countries command.
func NewCountriesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List the countries found in the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()

			list, err := s.service.Countries(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "list countries", err)
			}
			return NewPrinter(cmd.OutOrStdout(), rootOpts.JSON, rootOpts.Lang, s.cfg.Export.Precision).Countries(list)
		},
	}
}
