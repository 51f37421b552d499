package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gdpwaterfall/internal/config"
	apperrors "gdpwaterfall/internal/errors"
	"gdpwaterfall/internal/files"
	"gdpwaterfall/internal/infrastructure"
	"gdpwaterfall/internal/services"
)

// Exit codes for CLI commands.
const (
	ExitSuccess = 0
	ExitFailure = 1 // data could not be loaded or the country is unknown
	ExitUsage   = 2 // bad flags, arguments or configuration
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// loadConfig reads the configuration and applies the global flag overrides
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitUsage, "load configuration", err)
	}
	if opts.Source != "" {
		cfg.Data.Source = opts.Source
		cfg.Data.Type = ""
		if err := cfg.Validate(); err != nil {
			return nil, WrapExitError(ExitUsage, "load configuration", err)
		}
	}
	return cfg, nil
}

// session is a configuration with its dataset loaded once
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *services.ChartService
	logFile *os.File
}

// openSession loads the configuration and the dataset for an offline command.
// Logs go to stderr so stdout only carries the command output. An empty
// table is an error here: there is nothing to print.
func openSession(ctx context.Context, opts *RootOptions, stderr io.Writer) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	logCfg.Format = "text"
	if !opts.Verbose {
		logCfg.Level = "warn"
	}
	logger, logFile, err := infrastructure.NewLogger(logCfg, stderr)
	if err != nil {
		return nil, WrapExitError(ExitUsage, "open log file", err)
	}
	s := &session{cfg: cfg, logger: logger, logFile: logFile}

	src, err := files.NewSource(ctx, cfg)
	if err != nil {
		s.close()
		return nil, WrapExitError(ExitUsage, "create data source", err)
	}

	loadOpts := files.LoadOptions{Parse: files.ParseOptionsFor(cfg.Data), Logger: logger}
	s.service = services.NewChartService(func(ctx context.Context) (*files.LoadResult, error) {
		return files.LoadDataset(ctx, src, loadOpts)
	}, logger)

	if err := s.service.Load(ctx); err != nil {
		s.close()
		return nil, WrapExitError(ExitFailure, describeLoadFailure(err), err)
	}
	return s, nil
}

func (s *session) close() {
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

func describeLoadFailure(err error) string {
	switch {
	case apperrors.IsType(err, apperrors.ErrTypeEmptyDataset):
		return "the table contains no usable rows"
	case apperrors.IsType(err, apperrors.ErrTypeParsing):
		return "the table could not be parsed"
	default:
		return "the table could not be loaded"
	}
}
