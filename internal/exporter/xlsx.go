package exporter

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"gdpwaterfall/pkg/contracts/domain"
)

const (
	waterfallSheet = "Waterfall"
	summarySheet   = "Summary"
)

// WriteWaterfallXLSX writes chart as a workbook with a bar sheet and a
// summary sheet. Amounts are stored as rounded numbers, not text.
func WriteWaterfallXLSX(w io.Writer, chart *domain.WaterfallChart, opts Options) error {
	if chart == nil {
		return fmt.Errorf("nil chart")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), waterfallSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	numFmt := amountFormat(opts.precision())
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	header := make([]interface{}, len(waterfallHeader))
	for i, h := range waterfallHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(waterfallSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	if err := f.SetCellStyle(waterfallSheet, "A1", "G1", headerStyle); err != nil {
		return err
	}

	prec := opts.precision()
	for i, item := range chart.Items {
		row := []interface{}{
			chart.Country,
			item.Year,
			item.Kind.String(),
			cellAmount(item.Delta, prec),
			cellAmount(item.Start, prec),
			cellAmount(item.End, prec),
			cellAmount(item.Cumulative, prec),
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(waterfallSheet, cellName, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if n := len(chart.Items); n > 0 {
		if err := f.SetCellStyle(waterfallSheet, "D2", fmt.Sprintf("G%d", n+1), amountStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(waterfallSheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(waterfallSheet, "D", "G", 18); err != nil {
		return err
	}

	if err := writeSummarySheet(f, chart, prec, headerStyle, amountStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, chart *domain.WaterfallChart, prec int32, headerStyle, amountStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Country", chart.Country},
		{"State", string(chart.State)},
	}
	if s := chart.Summary; s != nil {
		rows = append(rows,
			[]interface{}{"First year", s.FirstYear},
			[]interface{}{"Last year", s.LastYear},
			[]interface{}{"Start value", cellAmount(s.StartValue, prec)},
			[]interface{}{"End value", cellAmount(s.EndValue, prec)},
			[]interface{}{"Net change", cellAmount(s.NetChange, prec)},
			[]interface{}{"Increases", s.Increases},
			[]interface{}{"Decreases", s.Decreases},
		)
	}

	for i := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cellName, &rows[i]); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle); err != nil {
		return err
	}
	if chart.Summary != nil {
		if err := f.SetCellStyle(summarySheet, "B5", "B7", amountStyle); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 18)
}

// amountFormat builds an Excel number format with prec decimals
func amountFormat(prec int32) string {
	if prec == 0 {
		return "#,##0"
	}
	return "#,##0." + strings.Repeat("0", int(prec))
}

func cellAmount(v float64, prec int32) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return roundAmount(v, prec).InexactFloat64()
}
