package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gdpwaterfall/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures waterfall exports
type Options struct {
	Delimiter    rune // CSV field delimiter (default ';')
	BOM          bool // prefix CSV output with a UTF-8 BOM for Excel
	Precision    int  // decimals written for amounts
	DecimalComma bool // write 1000,50 instead of 1000.50
}

// DefaultOptions returns the semicolon layout with two decimals
func DefaultOptions() Options {
	return Options{Delimiter: ';', Precision: DefaultPrecision}
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return ';'
	}
	return o.Delimiter
}

func (o Options) precision() int32 {
	if o.Precision < 0 {
		return 0
	}
	return int32(o.Precision)
}

// waterfallHeader is the column layout of every export
var waterfallHeader = []string{"Country", "Year", "Kind", "Delta", "Start", "End", "Cumulative"}

// WriteWaterfallCSV writes one row per bar of chart
func WriteWaterfallCSV(w io.Writer, chart *domain.WaterfallChart, opts Options) error {
	if chart == nil {
		return fmt.Errorf("nil chart")
	}
	if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	writer.Comma = opts.delimiter()

	if err := writer.Write(waterfallHeader); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	prec := opts.precision()
	for i, item := range chart.Items {
		record := []string{
			chart.Country,
			strconv.Itoa(item.Year),
			item.Kind.String(),
			formatAmount(item.Delta, prec, opts.DecimalComma),
			formatAmount(item.Start, prec, opts.DecimalComma),
			formatAmount(item.End, prec, opts.DecimalComma),
			formatAmount(item.Cumulative, prec, opts.DecimalComma),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Write exports chart in format f
func Write(w io.Writer, f Format, chart *domain.WaterfallChart, opts Options) error {
	switch f {
	case FormatCSV:
		return WriteWaterfallCSV(w, chart, opts)
	case FormatXLSX:
		return WriteWaterfallXLSX(w, chart, opts)
	}
	return fmt.Errorf("unsupported export format %q", f)
}
