package files

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"gdpwaterfall/internal/config"
	"gdpwaterfall/internal/dataprocessing"
	apperrors "gdpwaterfall/internal/errors"
)

// SheetsSource reads a range of a Google spreadsheet
type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
}

// NewSheetsSource creates a source authenticated with an API key or a
// service account credentials file. Extra options are appended last.
func NewSheetsSource(ctx context.Context, cfg config.SheetsConfig, opts ...option.ClientOption) (*SheetsSource, error) {
	var clientOpts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create Google Sheets service", err)
	}
	return &SheetsSource{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     cfg.Range,
	}, nil
}

// Name implements Source
func (s *SheetsSource) Name() string {
	return fmt.Sprintf("sheets:%s/%s", s.spreadsheetID, s.readRange)
}

// Type implements Source
func (s *SheetsSource) Type() string { return config.SourceSheets }

// Rows returns the formatted cell values of the range
func (s *SheetsSource) Rows(ctx context.Context) ([][]string, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		rows[i] = cells
	}
	return rows, nil
}

// Fetch implements Source
func (s *SheetsSource) Fetch(ctx context.Context, opts dataprocessing.ParseOptions) (*dataprocessing.ParseResult, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, apperrors.NewFileLoadError(s.Name(), err)
	}
	return dataprocessing.ParseRows(rows, opts), nil
}
