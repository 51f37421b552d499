package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindForDelta(t *testing.T) {
	tests := []struct {
		name  string
		delta float64
		want  ItemKind
	}{
		{name: "positive", delta: 12.5, want: ItemKindIncrease},
		{name: "zero counts as increase", delta: 0, want: ItemKindIncrease},
		{name: "negative zero counts as increase", delta: math.Copysign(0, -1), want: ItemKindIncrease},
		{name: "negative", delta: -0.01, want: ItemKindDecrease},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindForDelta(tt.delta))
		})
	}
}

func TestItemKind_JSON(t *testing.T) {
	item := WaterfallItem{Year: 2001, Kind: ItemKindDecrease, Delta: -2, Start: 10, End: 8, Cumulative: 8}

	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"year":2001,"kind":"decrease","delta":-2,"start":10,"end":8,"cumulative":8}`, string(data))

	var decoded WaterfallItem
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, item, decoded)

	var bad ItemKind
	assert.Error(t, bad.UnmarshalText([]byte("sideways")))

	_, err = ItemKind(7).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "ItemKind(7)", ItemKind(7).String())
}

func TestRecord_MissingGDP(t *testing.T) {
	missing := Record{Country: "France", Year: 1999, GDP: math.NaN()}
	assert.False(t, missing.HasGDP())
	assert.False(t, Record{Country: "France", Year: 1999, GDP: math.Inf(1)}.HasGDP())

	data, err := json.Marshal(missing)
	require.NoError(t, err)
	assert.JSONEq(t, `{"country":"France","year":1999,"gdp":null}`, string(data))

	present := Record{Country: "France", Year: 2000, GDP: 1.5}
	data, err = json.Marshal(present)
	require.NoError(t, err)
	assert.JSONEq(t, `{"country":"France","year":2000,"gdp":1.5}`, string(data))
}

func TestSeries_Valid(t *testing.T) {
	s := Series{
		{Country: "Chile", Year: 2000, GDP: 1},
		{Country: "Chile", Year: 2001, GDP: math.NaN()},
		{Country: "Chile", Year: 2002, GDP: 3},
	}

	valid := s.Valid()
	require.Len(t, valid, 2)
	assert.Equal(t, 2002, valid[1].Year)
	assert.Equal(t, "Chile", s.Country())

	first, last := s.Years()
	assert.Equal(t, 2000, first)
	assert.Equal(t, 2002, last)

	var empty Series
	assert.Equal(t, "", empty.Country())
	assert.Empty(t, empty.Valid())
}

func TestWaterfallChart_Empty(t *testing.T) {
	var nilChart *WaterfallChart
	assert.True(t, nilChart.Empty())
	assert.True(t, (&WaterfallChart{State: ChartStateNoData}).Empty())
	assert.False(t, (&WaterfallChart{Items: []WaterfallItem{{Year: 2000}}}).Empty())
}
