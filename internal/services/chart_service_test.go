package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdpwaterfall/internal/dataprocessing"
	apperrors "gdpwaterfall/internal/errors"
	"gdpwaterfall/internal/files"
	"gdpwaterfall/internal/infrastructure"
	"gdpwaterfall/internal/shared/testutil"
	"gdpwaterfall/pkg/contracts/domain"
)

func fileLoader(t *testing.T, content string) LoaderFunc {
	t.Helper()
	src := &files.FileSource{Path: testutil.WriteFile(t, "gdp.csv", content)}
	return func(ctx context.Context) (*files.LoadResult, error) {
		return files.LoadDataset(ctx, src, files.LoadOptions{})
	}
}

func newLoadedService(t *testing.T, content string) *ChartService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	svc := NewChartService(fileLoader(t, content), logger, WithMetrics(infrastructure.NoopChartMetrics()))
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func TestChartService_NotLoaded(t *testing.T) {
	svc := NewChartService(fileLoader(t, testutil.GermanyCSV), nil)

	_, err := svc.Countries(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFileLoad))

	_, err = svc.Waterfall(context.Background(), "Germany")
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)
	assert.True(t, IsDatasetError(err))

	_, ok := svc.Info()
	assert.False(t, ok)
}

func TestChartService_Countries(t *testing.T) {
	svc := newLoadedService(t, testutil.MixedCSV)

	list, err := svc.Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.CountryList{
		Countries: []string{"Atlantis", "France", "Germany"},
		Count:     3,
		State:     domain.DatasetStateOK,
	}, list)
}

func TestChartService_Waterfall(t *testing.T) {
	svc := newLoadedService(t, testutil.MixedCSV)

	tests := []struct {
		name      string
		country   string
		wantName  string
		wantState domain.ChartState
		wantItems int
		wantErr   error
	}{
		{name: "exact name", country: "Germany", wantName: "Germany", wantState: domain.ChartStateOK, wantItems: 3},
		{name: "case insensitive", country: "france", wantName: "France", wantState: domain.ChartStateOK, wantItems: 2},
		{name: "no valid values", country: "Atlantis", wantName: "Atlantis", wantState: domain.ChartStateNoData},
		{name: "unknown country", country: "Narnia", wantErr: ErrCountryNotFound},
		{name: "blank country", country: " ", wantErr: ErrCountryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chart, err := svc.Waterfall(context.Background(), tt.country)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
				assert.False(t, IsDatasetError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, chart.Country)
			assert.Equal(t, tt.wantState, chart.State)
			assert.Len(t, chart.Items, tt.wantItems)
			if tt.wantState == domain.ChartStateNoData {
				assert.NotEmpty(t, chart.Message)
				assert.Nil(t, chart.Summary)
				assert.NotNil(t, chart.Items, "no_data charts carry an empty, non-nil item list")
			}
		})
	}
}

func TestChartService_WaterfallValues(t *testing.T) {
	svc := newLoadedService(t, testutil.MixedCSV)

	chart, err := svc.Waterfall(context.Background(), "France")
	require.NoError(t, err)
	require.Len(t, chart.Items, 2)
	assert.Equal(t, domain.ItemKindBase, chart.Items[0].Kind)
	assert.Equal(t, 2002, chart.Items[1].Year)
	assert.Equal(t, 50.25, chart.Items[1].Delta)
	require.NotNil(t, chart.Summary)
	assert.Equal(t, 850.25, chart.Summary.EndValue)
}

func TestChartService_ExportableWaterfall(t *testing.T) {
	svc := newLoadedService(t, testutil.MixedCSV)

	chart, err := svc.ExportableWaterfall(context.Background(), "Germany")
	require.NoError(t, err)
	assert.False(t, chart.Empty())

	_, err = svc.ExportableWaterfall(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNoData))
}

func TestChartService_EmptyDataset(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := NewChartService(fileLoader(t, testutil.EmptyCSV), logger)

	err := svc.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyDataset))

	list, err := svc.Countries(context.Background())
	require.NoError(t, err, "an empty dataset still lists, with no countries")
	assert.Empty(t, list.Countries)
	assert.Equal(t, 0, list.Count)
	assert.Equal(t, domain.DatasetStateEmpty, list.State)

	_, err = svc.Waterfall(context.Background(), "Germany")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyDataset)
	assert.True(t, IsDatasetError(err))

	info, ok := svc.Info()
	require.True(t, ok)
	assert.Equal(t, domain.DatasetStateEmpty, info.State)
}

func TestChartService_FailedReloadKeepsSnapshot(t *testing.T) {
	good := fileLoader(t, testutil.GermanyCSV)
	fail := errors.New("disk gone")

	var mu sync.Mutex
	calls := 0
	loader := func(ctx context.Context) (*files.LoadResult, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return good(ctx)
		}
		return nil, apperrors.NewFileLoadError("gdp.csv", fail)
	}

	logger, logs := testutil.NewTestLogger(t)
	svc := NewChartService(loader, logger)
	require.NoError(t, svc.Load(context.Background()))

	svc.Reload(context.Background())
	assert.True(t, logs.ContainsMessage("Dataset reload failed, keeping previous snapshot"))

	chart, err := svc.Waterfall(context.Background(), "Germany")
	require.NoError(t, err)
	assert.Len(t, chart.Items, 2)
}

func TestChartService_OnReload(t *testing.T) {
	records := []domain.Record{{Country: "Chad", Year: 2000, GDP: 1}, {Country: "Chad", Year: 2001, GDP: math.NaN()}}
	loadedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	loader := func(ctx context.Context) (*files.LoadResult, error) {
		return &files.LoadResult{
			Dataset:  dataprocessing.NewDataset(records),
			Source:   "memory",
			LoadedAt: loadedAt,
		}, nil
	}

	svc := NewChartService(loader, nil)
	var got []DatasetInfo
	svc.OnReload(func(info DatasetInfo) { got = append(got, info) })

	require.NoError(t, svc.Load(context.Background()))
	require.NoError(t, svc.Load(context.Background()))

	require.Len(t, got, 2)
	assert.Equal(t, DatasetInfo{
		Source:    "memory",
		State:     domain.DatasetStateOK,
		Countries: 1,
		Records:   2,
		LoadedAt:  loadedAt,
	}, got[0])
}

func TestChartService_LoaderReturnsNothing(t *testing.T) {
	svc := NewChartService(func(ctx context.Context) (*files.LoadResult, error) { return nil, nil }, nil)
	err := svc.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFileLoad))
}

func TestChartService_ConcurrentReaders(t *testing.T) {
	svc := newLoadedService(t, testutil.MixedCSV)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				chart, err := svc.Waterfall(context.Background(), "Germany")
				if assert.NoError(t, err) {
					assert.Len(t, chart.Items, 3)
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		svc.Reload(context.Background())
	}
	wg.Wait()
}
