package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"gdpwaterfall/internal/app"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := map[string]string{
				"name":       app.AppName,
				"version":    app.Version,
				"build_time": app.BuildTime,
				"go_version": runtime.Version(),
			}
			if rootOpts.JSON {
				return NewPrinter(cmd.OutOrStdout(), true, rootOpts.Lang, 0).JSON(info)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (built %s, %s)\n",
				app.AppName, app.Version, orUnknown(app.BuildTime), runtime.Version())
			return err
		},
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
