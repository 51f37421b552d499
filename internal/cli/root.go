package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"gdpwaterfall/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Source     string
	Verbose    bool
	JSON       bool
	Lang       string
}

// NewRootCommand creates the root command for the gdpwaterfall CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gdpwaterfall",
		Short: config.AppName + " - year over year GDP changes per country",
		Long: `Reads a semicolon separated GDP table and shows, per country, the
base GDP of the first valid year followed by the yearly increases and
decreases. Serves the charts over HTTP or prints them offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := language.Parse(opts.Lang); err != nil {
				return NewExitError(ExitUsage, fmt.Sprintf("invalid language tag %q", opts.Lang))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitUsage, "invalid flags", err)
	})

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file (default: $GDPW_CONFIG, config.yaml)")
	cmd.PersistentFlags().StringVarP(&opts.Source, "source", "s", "", "override the data source path or URL")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log loading details to stderr")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "print JSON instead of text")
	cmd.PersistentFlags().StringVar(&opts.Lang, "lang", "en", "language tag used to format numbers")

	cmd.AddCommand(NewCountriesCommand(opts))
	cmd.AddCommand(NewChartCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}
