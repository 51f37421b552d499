package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gdpwaterfall/pkg/contracts/domain"
)

func TestWriteWaterfallXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWaterfallXLSX(&buf, kenyaChart(), DefaultOptions()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{waterfallSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(waterfallSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, waterfallHeader, rows[0])
	assert.Equal(t, []string{"Kenya", "2012", "decrease", "-1", "42", "41", "41"}, rows[3])

	formatted, err := f.GetCellValue(waterfallSheet, "F2")
	require.NoError(t, err)
	assert.Equal(t, "40.00", formatted)

	summary, err := f.GetRows(summarySheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, summary, 9)
	assert.Equal(t, []string{"Net change", "1"}, summary[6])
	assert.Equal(t, []string{"Decreases", "1"}, summary[8])
}

func TestWriteWaterfallXLSX_NoData(t *testing.T) {
	chart := &domain.WaterfallChart{Country: "Atlantis", State: domain.ChartStateNoData, Items: []domain.WaterfallItem{}}

	var buf bytes.Buffer
	require.NoError(t, WriteWaterfallXLSX(&buf, chart, Options{Precision: 0}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(waterfallSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Country", "Atlantis"}, {"State", "no_data"}}, summary)
}

func TestAmountFormat(t *testing.T) {
	assert.Equal(t, "#,##0", amountFormat(0))
	assert.Equal(t, "#,##0.000", amountFormat(3))
}
