package cli

import (
	"github.com/spf13/cobra"

	"gdpwaterfall/internal/app"
	"gdpwaterfall/internal/infrastructure"
)

// ServeOptions holds the serve command flags.
type ServeOptions struct {
	Host  string
	Port  int
	Watch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the waterfall API and live channel",
		Long: `Serve the waterfall API, the websocket live channel and the metrics
endpoint until interrupted.

A table without usable rows does not stop the server: every request is
answered in the empty-dataset state until the file is fixed and reloaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = opts.Host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = opts.Port
			}
			if cmd.Flags().Changed("watch") {
				cfg.Data.Watch = opts.Watch
			}
			if rootOpts.Verbose {
				cfg.Logging.Level = "debug"
			}

			logger, err := infrastructure.InitializeLogger(cfg.Logging)
			if err != nil {
				return WrapExitError(ExitUsage, "initialize logger", err)
			}
			defer func() { _ = infrastructure.CloseLogFile() }()

			application, err := app.NewApplication(cmd.Context(), cfg, logger)
			if err != nil {
				return WrapExitError(ExitFailure, "initialize application", err)
			}
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVarP(&opts.Port, "port", "p", 8080, "listen port (overrides server.port)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "reload the table when the file changes")
	return cmd
}
