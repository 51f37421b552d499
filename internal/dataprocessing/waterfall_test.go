package dataprocessing

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdpwaterfall/pkg/contracts/domain"
)

// checkChain verifies the structural invariants every waterfall must hold
func checkChain(t *testing.T, items []domain.WaterfallItem) {
	t.Helper()
	if len(items) == 0 {
		return
	}
	assert.Equal(t, domain.ItemKindBase, items[0].Kind)
	assert.Equal(t, 0.0, items[0].Start)
	for i, item := range items {
		assert.Equal(t, item.Delta, item.End-item.Start, "item %d: end-start must equal delta", i)
		assert.Equal(t, item.End, item.Cumulative, "item %d: cumulative must equal end", i)
		if i == 0 {
			continue
		}
		assert.Equal(t, items[i-1].End, item.Start, "item %d: start must continue previous end", i)
		assert.NotEqual(t, domain.ItemKindBase, item.Kind, "item %d: only the first bar is a base", i)
		assert.Equal(t, domain.KindForDelta(item.Delta), item.Kind, "item %d: kind must follow delta sign", i)
	}
}

func TestBuildWaterfall_GermanyExample(t *testing.T) {
	input := "Country Name;Year;GDP\nGermany;2000;1.000,5\nGermany;2001;1100\n"
	result, err := ParseDSV(strings.NewReader(input), ParseOptions{})
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, 1000.5, result.Records[0].GDP)
	assert.Equal(t, 1100.0, result.Records[1].GDP)

	series, ok := NewDataset(result.Records).Series("Germany")
	require.True(t, ok)

	want := []domain.WaterfallItem{
		{Year: 2000, Kind: domain.ItemKindBase, Delta: 1000.5, Start: 0, End: 1000.5, Cumulative: 1000.5},
		{Year: 2001, Kind: domain.ItemKindIncrease, Delta: 99.5, Start: 1000.5, End: 1100, Cumulative: 1100},
	}
	got := BuildWaterfall(series)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildWaterfall mismatch (-want +got):\n%s", diff)
	}
	checkChain(t, got)
}

func TestBuildWaterfall(t *testing.T) {
	nan := math.NaN()
	rec := func(year int, gdp float64) domain.Record {
		return domain.Record{Country: "Testland", Year: year, GDP: gdp}
	}

	tests := []struct {
		name   string
		series domain.Series
		want   []domain.WaterfallItem
	}{
		{
			name:   "empty series",
			series: nil,
			want:   []domain.WaterfallItem{},
		},
		{
			name:   "only missing values",
			series: domain.Series{rec(2000, nan), rec(2001, nan)},
			want:   []domain.WaterfallItem{},
		},
		{
			name:   "single value",
			series: domain.Series{rec(2000, 50)},
			want: []domain.WaterfallItem{
				{Year: 2000, Kind: domain.ItemKindBase, Delta: 50, End: 50, Cumulative: 50},
			},
		},
		{
			name:   "decrease and flat step",
			series: domain.Series{rec(2000, 100), rec(2001, 80), rec(2002, 80)},
			want: []domain.WaterfallItem{
				{Year: 2000, Kind: domain.ItemKindBase, Delta: 100, End: 100, Cumulative: 100},
				{Year: 2001, Kind: domain.ItemKindDecrease, Delta: -20, Start: 100, End: 80, Cumulative: 80},
				{Year: 2002, Kind: domain.ItemKindIncrease, Delta: 0, Start: 80, End: 80, Cumulative: 80},
			},
		},
		{
			name:   "missing value between valid ones is skipped",
			series: domain.Series{rec(2000, 100), rec(2001, nan), rec(2002, 130)},
			want: []domain.WaterfallItem{
				{Year: 2000, Kind: domain.ItemKindBase, Delta: 100, End: 100, Cumulative: 100},
				{Year: 2002, Kind: domain.ItemKindIncrease, Delta: 30, Start: 100, End: 130, Cumulative: 130},
			},
		},
		{
			name:   "leading missing values move the base",
			series: domain.Series{rec(1998, nan), rec(1999, nan), rec(2000, 10), rec(2001, 4)},
			want: []domain.WaterfallItem{
				{Year: 2000, Kind: domain.ItemKindBase, Delta: 10, End: 10, Cumulative: 10},
				{Year: 2001, Kind: domain.ItemKindDecrease, Delta: -6, Start: 10, End: 4, Cumulative: 4},
			},
		},
		{
			name:   "negative base",
			series: domain.Series{rec(2000, -5), rec(2001, -2)},
			want: []domain.WaterfallItem{
				{Year: 2000, Kind: domain.ItemKindBase, Delta: -5, End: -5, Cumulative: -5},
				{Year: 2001, Kind: domain.ItemKindIncrease, Delta: 3, Start: -5, End: -2, Cumulative: -2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildWaterfall(tt.series)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildWaterfall mismatch (-want +got):\n%s", diff)
			}
			checkChain(t, got)
		})
	}
}

func TestBuildWaterfall_SkipInvalidFromTable(t *testing.T) {
	input := "Country;Year;GDP\nBrazil;2000;100\nBrazil;2001;nan\nBrazil;2002;150\n"
	result, err := ParseDSV(strings.NewReader(input), ParseOptions{})
	require.NoError(t, err)

	series, ok := NewDataset(result.Records).Series("Brazil")
	require.True(t, ok)
	require.Len(t, series, 3, "the missing row stays in the series")

	items := BuildWaterfall(series)
	require.Len(t, items, 2)
	assert.Equal(t, 2002, items[1].Year)
	assert.Equal(t, 50.0, items[1].Delta, "delta spans the gap instead of stepping through zero")
}

func TestBuildWaterfall_ChainProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		t.Run(fmt.Sprintf("run_%d", run), func(t *testing.T) {
			n := rng.Intn(30)
			series := make(domain.Series, 0, n)
			for i := 0; i < n; i++ {
				gdp := rng.NormFloat64() * math.Pow(10, float64(rng.Intn(13)))
				if rng.Intn(5) == 0 {
					gdp = math.NaN()
				}
				series = append(series, domain.Record{Country: "X", Year: 1960 + i, GDP: gdp})
			}

			items := BuildWaterfall(series)
			assert.Len(t, items, len(series.Valid()))
			checkChain(t, items)
			if len(items) > 0 {
				valid := series.Valid()
				assert.Equal(t, valid[len(valid)-1].GDP, items[len(items)-1].Cumulative)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	assert.Nil(t, Summarize(nil))

	items := BuildWaterfall(domain.Series{
		{Country: "Kenya", Year: 2010, GDP: 40},
		{Country: "Kenya", Year: 2011, GDP: 42},
		{Country: "Kenya", Year: 2012, GDP: 41},
		{Country: "Kenya", Year: 2013, GDP: 41},
	})

	want := &domain.WaterfallSummary{
		FirstYear:  2010,
		LastYear:   2013,
		StartValue: 40,
		EndValue:   41,
		NetChange:  1,
		Increases:  2,
		Decreases:  1,
	}
	assert.Equal(t, want, Summarize(items))
}
