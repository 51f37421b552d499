package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"gdpwaterfall/pkg/contracts/domain"
)

// DefaultDelimiter separates fields in the GDP table
const DefaultDelimiter = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseOptions configures table parsing
type ParseOptions struct {
	Delimiter rune        // field delimiter for DSV input (default ';')
	Columns   ColumnNames // explicit header names, optional
	Sheet     string      // worksheet for XLSX input (default: first sheet)
	Logger    *slog.Logger
}

func (o ParseOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// ParseStats counts what happened to the input rows
type ParseStats struct {
	RowsRead    int `json:"rows_read"`
	RowsKept    int `json:"rows_kept"`
	RowsDropped int `json:"rows_dropped"`
	BlankRows   int `json:"blank_rows"`
	MissingGDP  int `json:"missing_gdp"`
}

// ParseResult is a parsed and cleaned table
type ParseResult struct {
	Header  []string
	Columns ColumnMap
	Records []domain.Record
	Stats   ParseStats
}

// ParseDSV reads a delimiter-separated table whose first row is the header.
// A leading UTF-8 byte order mark is ignored and rows may have differing
// field counts.
func ParseDSV(r io.Reader, opts ParseOptions) (*ParseResult, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comma = opts.Delimiter
	if reader.Comma == 0 {
		reader.Comma = DefaultDelimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read delimited table: %w", err)
		}
		rows = append(rows, row)
	}

	return ParseRows(rows, opts), nil
}

// ParseXLSX reads the GDP table from an Excel workbook
func ParseXLSX(r io.Reader, opts ParseOptions) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return ParseRows(nil, opts), nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	opts.logger().Debug("Workbook sheet read",
		slog.String("sheet_name", sheet),
		slog.Int("total_rows", len(rows)))

	return ParseRows(rows, opts), nil
}

// ParseRows cleans an in-memory table whose first row is the header.
// An empty table yields an empty result, not an error.
func ParseRows(rows [][]string, opts ParseOptions) *ParseResult {
	logger := opts.logger()
	result := &ParseResult{
		Columns: ColumnMap{Country: NoColumn, Year: NoColumn, GDP: NoColumn},
	}
	if len(rows) == 0 {
		return result
	}

	result.Header = rows[0]
	result.Columns = InferColumns(result.Header, opts.Columns)

	logger.Debug("Column mapping",
		slog.Any("header", result.Header),
		slog.Int("country", result.Columns.Country),
		slog.Int("year", result.Columns.Year),
		slog.Int("gdp", result.Columns.GDP))
	if !result.Columns.HasGDP() {
		logger.Warn("No GDP column found, every value will be missing",
			slog.Any("header", result.Header))
	}

	for _, row := range rows[1:] {
		result.Stats.RowsRead++
		if isBlank(row) {
			result.Stats.BlankRows++
			result.Stats.RowsDropped++
			continue
		}

		record, ok := CleanRow(row, result.Columns)
		if !ok {
			result.Stats.RowsDropped++
			continue
		}
		if !record.HasGDP() {
			result.Stats.MissingGDP++
		}
		result.Records = append(result.Records, record)
		result.Stats.RowsKept++
	}

	logger.Debug("Table parsed",
		slog.Int("rows_read", result.Stats.RowsRead),
		slog.Int("rows_kept", result.Stats.RowsKept),
		slog.Int("rows_dropped", result.Stats.RowsDropped),
		slog.Int("missing_gdp", result.Stats.MissingGDP))

	return result
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
