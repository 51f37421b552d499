package files

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gdpwaterfall/internal/config"
	"gdpwaterfall/internal/dataprocessing"
	apperrors "gdpwaterfall/internal/errors"
	"gdpwaterfall/internal/validation"
)

// Source is where the GDP table comes from
type Source interface {
	// Name identifies the source in logs and errors
	Name() string
	// Type is one of config.SourceFile, SourceHTTP or SourceSheets
	Type() string
	// Fetch reads and parses the table. Transport failures are returned
	// as FILE_LOAD errors and unreadable tables as PARSING errors.
	Fetch(ctx context.Context, opts dataprocessing.ParseOptions) (*dataprocessing.ParseResult, error)
}

// FileSource reads a table from the local file system
type FileSource struct {
	Path string
	// FormatHint overrides extension based detection unless empty or "auto"
	FormatHint string
}

// Open checks the file and returns its contents
func (s *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validation.NewFileValidator(nil).ValidateTableFile(s.Path, s.Format()); err != nil {
		return nil, err
	}
	return os.Open(s.Path)
}

// Name implements Source
func (s *FileSource) Name() string { return s.Path }

// Type implements Source
func (s *FileSource) Type() string { return config.SourceFile }

// Format reports how the file will be parsed
func (s *FileSource) Format() string {
	return resolveFormat(s.FormatHint, filepath.Ext(s.Path))
}

// Fetch implements Source
func (s *FileSource) Fetch(ctx context.Context, opts dataprocessing.ParseOptions) (*dataprocessing.ParseResult, error) {
	return fetchStream(ctx, s, s.Format(), opts)
}

// HTTPSource fetches a table once over HTTP. Failures are not retried.
type HTTPSource struct {
	URL        string
	Client     *http.Client
	Timeout    time.Duration
	FormatHint string
}

// Open performs the request. The timeout covers reading the body too, so the
// returned reader must be closed to release it.
func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	cancel := context.CancelFunc(func() {})
	if s.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

// Name implements Source
func (s *HTTPSource) Name() string { return s.URL }

// Type implements Source
func (s *HTTPSource) Type() string { return config.SourceHTTP }

// Fetch implements Source
func (s *HTTPSource) Fetch(ctx context.Context, opts dataprocessing.ParseOptions) (*dataprocessing.ParseResult, error) {
	return fetchStream(ctx, s, s.Format(), opts)
}

// Format reports how the response body will be parsed
func (s *HTTPSource) Format() string {
	ext := ""
	if u, err := url.Parse(s.URL); err == nil {
		ext = path.Ext(u.Path)
	}
	return resolveFormat(s.FormatHint, ext)
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

func resolveFormat(hint, ext string) string {
	switch strings.ToLower(hint) {
	case config.FormatDSV, config.FormatXLSX:
		return strings.ToLower(hint)
	}
	switch strings.ToLower(ext) {
	case ".xlsx", ".xlsm":
		return config.FormatXLSX
	default:
		return config.FormatDSV
	}
}

type opener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// fetchStream opens src and parses it as format
func fetchStream(ctx context.Context, src opener, format string, opts dataprocessing.ParseOptions) (*dataprocessing.ParseResult, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, apperrors.NewFileLoadError(src.Name(), err)
	}
	defer rc.Close()

	var result *dataprocessing.ParseResult
	if format == config.FormatXLSX {
		result, err = dataprocessing.ParseXLSX(rc, opts)
	} else {
		result, err = dataprocessing.ParseDSV(rc, opts)
	}
	if err != nil {
		var csvErr *csv.ParseError
		if ctx.Err() != nil || (format != config.FormatXLSX && !errors.As(err, &csvErr)) {
			return nil, apperrors.NewFileLoadError(src.Name(), err)
		}
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to parse %s", src.Name()), err).
			WithContext("format", format)
	}
	return result, nil
}

// NewSource builds the source described by cfg
func NewSource(ctx context.Context, cfg *config.Config) (Source, error) {
	switch cfg.Data.SourceType() {
	case config.SourceSheets:
		return NewSheetsSource(ctx, cfg.Sheets)
	case config.SourceHTTP:
		return &HTTPSource{
			URL:        cfg.Data.Source,
			Timeout:    cfg.Data.FetchTimeout,
			FormatHint: cfg.Data.Format,
		}, nil
	default:
		return &FileSource{Path: cfg.Data.Source, FormatHint: cfg.Data.Format}, nil
	}
}
