package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gdpwaterfall/internal/exporter"
	"gdpwaterfall/internal/validation"
)

// ExportOptions holds the export command flags.
type ExportOptions struct {
	Format string
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export <country>",
		Short: "Write a country's waterfall as CSV or XLSX",
		Long: `Write a country's waterfall as CSV or XLSX.

Without --output the file name is derived from the country, e.g.
germany_gdp_waterfall.csv. Use --output - to write to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", string(exporter.FormatCSV), "file format (csv|xlsx)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output path, - for stdout")
	return cmd
}

func runExport(cmd *cobra.Command, rootOpts *RootOptions, opts *ExportOptions, country string) error {
	format, err := exporter.ParseFormat(opts.Format)
	if err != nil {
		return WrapExitError(ExitUsage, "invalid --format", err)
	}

	s, err := openSession(cmd.Context(), rootOpts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	chart, err := s.service.ExportableWaterfall(cmd.Context(), country)
	if err != nil {
		return WrapExitError(ExitFailure, "export waterfall", err)
	}

	exportOpts := exporter.Options{
		Delimiter:    s.cfg.Data.DelimiterRune(),
		BOM:          s.cfg.Export.BOM,
		Precision:    s.cfg.Export.Precision,
		DecimalComma: s.cfg.Export.DecimalComma,
	}

	var buf bytes.Buffer
	if err := exporter.Write(&buf, format, chart, exportOpts); err != nil {
		return WrapExitError(ExitFailure, "export waterfall", err)
	}

	if opts.Output == "-" {
		_, err := buf.WriteTo(cmd.OutOrStdout())
		return err
	}

	path := opts.Output
	if path == "" {
		path = format.Filename(chart.Country)
	}
	if err := validation.NewFileValidator(s.logger).ValidateOutputFile(path); err != nil {
		return WrapExitError(ExitUsage, "invalid --output", err)
	}
	size := buf.Len()
	if err := writeFile(path, &buf); err != nil {
		return WrapExitError(ExitFailure, "write export", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", path, size)
	return nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
