package exporter

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdpwaterfall/internal/dataprocessing"
	"gdpwaterfall/pkg/contracts/domain"
)

func chartFor(country string, values map[int]float64, years ...int) *domain.WaterfallChart {
	series := make(domain.Series, 0, len(years))
	for _, y := range years {
		series = append(series, domain.Record{Country: country, Year: y, GDP: values[y]})
	}
	items := dataprocessing.BuildWaterfall(series)
	return &domain.WaterfallChart{
		Country: country,
		State:   domain.ChartStateOK,
		Items:   items,
		Summary: dataprocessing.Summarize(items),
	}
}

func germanyChart() *domain.WaterfallChart {
	return chartFor("Germany", map[int]float64{2000: 1000.5, 2001: 1100}, 2000, 2001)
}

func kenyaChart() *domain.WaterfallChart {
	return chartFor("Kenya", map[int]float64{2010: 40, 2011: 42, 2012: 41, 2013: 41}, 2010, 2011, 2012, 2013)
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestWriteWaterfallCSV_Golden(t *testing.T) {
	tests := []struct {
		name  string
		chart *domain.WaterfallChart
		opts  Options
	}{
		{name: "germany_csv", chart: germanyChart(), opts: DefaultOptions()},
		{name: "kenya_bom_comma_csv", chart: kenyaChart(), opts: Options{BOM: true, Precision: 1, DecimalComma: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteWaterfallCSV(&buf, tt.chart, tt.opts))
			newGoldie(t).Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestWriteWaterfallCSV_RoundTripsThroughParser(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWaterfallCSV(&buf, germanyChart(), Options{BOM: true, DecimalComma: true, Precision: 2}))

	parsed, err := dataprocessing.ParseDSV(&buf, dataprocessing.ParseOptions{
		Columns: dataprocessing.ColumnNames{GDP: "End"},
	})
	require.NoError(t, err)
	require.Len(t, parsed.Records, 2)
	assert.Equal(t, 1000.5, parsed.Records[0].GDP)
	assert.Equal(t, 1100.0, parsed.Records[1].GDP)
}

func TestWriteWaterfallCSV_EmptyChart(t *testing.T) {
	var buf bytes.Buffer
	chart := &domain.WaterfallChart{Country: "Atlantis", State: domain.ChartStateNoData, Items: []domain.WaterfallItem{}}
	require.NoError(t, WriteWaterfallCSV(&buf, chart, Options{Delimiter: ','}))
	assert.Equal(t, "Country,Year,Kind,Delta,Start,End,Cumulative\n", buf.String())
}

func TestWriteWaterfallCSV_Errors(t *testing.T) {
	assert.Error(t, WriteWaterfallCSV(&bytes.Buffer{}, nil, DefaultOptions()))

	w := &failingWriter{err: errors.New("disk full")}
	err := WriteWaterfallCSV(w, germanyChart(), Options{BOM: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

type failingWriter struct{ err error }

func (f *failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		v     float64
		prec  int32
		comma bool
		want  string
	}{
		{v: 1.005, prec: 2, want: "1.01"},
		{v: 2.5, prec: 0, want: "3"},
		{v: -2.5, prec: 0, want: "-3"},
		{v: 1234567.891, prec: 2, comma: true, want: "1234567,89"},
		{v: 0, prec: 3, want: "0.000"},
		{v: 1e15, prec: 1, want: "1000000000000000.0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAmount(tt.v, tt.prec, tt.comma), "formatAmount(%v, %d)", tt.v, tt.prec)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, " xlsx ": FormatXLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestFormat_Filename(t *testing.T) {
	assert.Equal(t, "germany_gdp_waterfall.csv", FormatCSV.Filename("Germany"))
	assert.Equal(t, "united_states_gdp_waterfall.xlsx", FormatXLSX.Filename("United States"))
	assert.Equal(t, "cte_divoire_gdp_waterfall.csv", FormatCSV.Filename("Côte d'Ivoire"))
	assert.Equal(t, "country_gdp_waterfall.csv", FormatCSV.Filename("???"))
	assert.True(t, strings.HasPrefix(FormatXLSX.ContentType(), "application/vnd.openxmlformats"))
}

func TestWrite_Dispatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, germanyChart(), DefaultOptions()))
	assert.True(t, strings.HasPrefix(buf.String(), "Country;Year"))

	assert.Error(t, Write(&buf, Format("pdf"), germanyChart(), DefaultOptions()))
	assert.Error(t, Write(&buf, FormatXLSX, nil, DefaultOptions()))
}
