package files

import (
	"context"
	"log/slog"
	"time"

	"gdpwaterfall/internal/config"
	"gdpwaterfall/internal/dataprocessing"
	apperrors "gdpwaterfall/internal/errors"
	"gdpwaterfall/internal/infrastructure"
)

// LoadOptions configures LoadDataset
type LoadOptions struct {
	Parse   dataprocessing.ParseOptions
	Logger  *slog.Logger
	Metrics *infrastructure.ChartMetrics
}

// ParseOptionsFor maps the data section of the configuration onto parser options
func ParseOptionsFor(cfg config.DataConfig) dataprocessing.ParseOptions {
	return dataprocessing.ParseOptions{
		Delimiter: cfg.DelimiterRune(),
		Columns: dataprocessing.ColumnNames{
			Country: cfg.Columns.Country,
			Year:    cfg.Columns.Year,
			GDP:     cfg.Columns.GDP,
		},
		Sheet: cfg.Sheet,
	}
}

// LoadResult is one loaded snapshot of the table
type LoadResult struct {
	Dataset  *dataprocessing.Dataset
	Columns  dataprocessing.ColumnMap
	Stats    dataprocessing.ParseStats
	Source   string
	LoadedAt time.Time
}

// LoadDataset fetches and parses src once.
//
// A table without usable rows yields an EMPTY_DATASET error together with a
// non-nil result holding the empty dataset, so callers may either halt or
// continue in the empty state.
func LoadDataset(ctx context.Context, src Source, opts LoadOptions) (*LoadResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("source", src.Name()), slog.String("source_type", src.Type()))
	if opts.Parse.Logger == nil {
		opts.Parse.Logger = logger
	}

	start := time.Now()
	parsed, err := src.Fetch(ctx, opts.Parse)
	if err != nil {
		opts.Metrics.RecordDatasetLoad(ctx, src.Type(), time.Since(start), 0, 0, err)
		logger.ErrorContext(ctx, "Dataset load failed", slog.String("error", err.Error()))
		return nil, err
	}

	result := &LoadResult{
		Dataset:  dataprocessing.NewDataset(parsed.Records),
		Columns:  parsed.Columns,
		Stats:    parsed.Stats,
		Source:   src.Name(),
		LoadedAt: time.Now(),
	}
	opts.Metrics.RecordDatasetLoad(ctx, src.Type(), time.Since(start), result.Dataset.Len(), result.Dataset.RecordCount(), nil)

	if result.Dataset.Empty() {
		logger.WarnContext(ctx, "Dataset is empty",
			slog.Int("rows_read", parsed.Stats.RowsRead),
			slog.Int("rows_dropped", parsed.Stats.RowsDropped))
		return result, apperrors.NewEmptyDatasetError(src.Name(), nil).
			WithContext("rows_read", parsed.Stats.RowsRead)
	}

	logger.InfoContext(ctx, "Dataset loaded",
		slog.Int("countries", result.Dataset.Len()),
		slog.Int("records", result.Dataset.RecordCount()),
		slog.Int("rows_dropped", parsed.Stats.RowsDropped),
		slog.Int("missing_gdp", parsed.Stats.MissingGDP),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}
