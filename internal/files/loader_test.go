package files

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdpwaterfall/internal/config"
	"gdpwaterfall/internal/dataprocessing"
	apperrors "gdpwaterfall/internal/errors"
	"gdpwaterfall/internal/infrastructure"
	"gdpwaterfall/internal/shared/testutil"
)

func TestLoadDataset(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	src := &FileSource{Path: testutil.WriteFile(t, "gdp.csv", testutil.MixedCSV)}

	result, err := LoadDataset(context.Background(), src, LoadOptions{
		Logger:  logger,
		Metrics: infrastructure.NoopChartMetrics(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Atlantis", "France", "Germany"}, result.Dataset.Countries())
	assert.Equal(t, 7, result.Dataset.RecordCount())
	assert.Equal(t, 2, result.Stats.RowsDropped)
	assert.Equal(t, 2, result.Stats.MissingGDP)
	assert.Equal(t, src.Path, result.Source)
	assert.False(t, result.LoadedAt.IsZero())

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "Dataset loaded")
	assert.True(t, logs.ContainsAttr("countries", int64(3)))
}

func TestLoadDataset_ColumnOverrides(t *testing.T) {
	input := "Code;Country;Year;GDP growth;GDP\nDEU;Germany;2000;1,5;1000\n"
	src := &FileSource{Path: testutil.WriteFile(t, "gdp.csv", input)}

	result, err := LoadDataset(context.Background(), src, LoadOptions{
		Parse: dataprocessing.ParseOptions{
			Columns: dataprocessing.ColumnNames{Country: "Country", GDP: "GDP"},
		},
	})
	require.NoError(t, err)

	series, ok := result.Dataset.Series("Germany")
	require.True(t, ok)
	assert.Equal(t, 1000.0, series[0].GDP)
}

func TestLoadDataset_Empty(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	src := &FileSource{Path: testutil.WriteFile(t, "gdp.csv", testutil.EmptyCSV)}

	result, err := LoadDataset(context.Background(), src, LoadOptions{Logger: logger})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyDataset))

	require.NotNil(t, result, "the empty snapshot is still returned")
	assert.True(t, result.Dataset.Empty())
	assert.Empty(t, result.Dataset.Countries())
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Dataset is empty")
}

func TestLoadDataset_Unreachable(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	src := &FileSource{Path: "/nonexistent/gdp.csv"}

	result, err := LoadDataset(context.Background(), src, LoadOptions{Logger: logger})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFileLoad))
	testutil.AssertLogContains(t, logs, slog.LevelError, "Dataset load failed")
}

func TestParseOptionsFor(t *testing.T) {
	cfg := config.Default().Data
	cfg.Delimiter = ","
	cfg.Sheet = "Data"
	cfg.Columns.GDP = "GDP (current US$)"

	opts := ParseOptionsFor(cfg)
	assert.Equal(t, ',', opts.Delimiter)
	assert.Equal(t, "Data", opts.Sheet)
	assert.Equal(t, dataprocessing.ColumnNames{GDP: "GDP (current US$)"}, opts.Columns)
}
