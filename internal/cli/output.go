package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"gdpwaterfall/pkg/contracts/domain"
)

// Printer renders command results as text or JSON.
type Printer struct {
	w         io.Writer
	json      bool
	numbers   *message.Printer
	precision int32
}

// NewPrinter creates a printer for w. lang selects digit grouping and the
// decimal mark of text output; JSON output is never localized.
func NewPrinter(w io.Writer, asJSON bool, lang string, precision int) *Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	if precision < 0 {
		precision = 0
	}
	return &Printer{
		w:         w,
		json:      asJSON,
		numbers:   message.NewPrinter(tag),
		precision: int32(precision),
	}
}

// Amount formats v rounded half away from zero to the printer precision
func (p *Printer) Amount(v float64) string {
	rounded, _ := decimal.NewFromFloat(v).Round(p.precision).Float64()
	return p.numbers.Sprint(number.Decimal(rounded, number.Scale(int(p.precision))))
}

// JSON writes v as indented JSON
func (p *Printer) JSON(v interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Countries prints one country per line
func (p *Printer) Countries(list domain.CountryList) error {
	if p.json {
		return p.JSON(list)
	}
	if list.State == domain.DatasetStateEmpty || list.Count == 0 {
		_, err := fmt.Fprintln(p.w, "no countries")
		return err
	}
	for _, c := range list.Countries {
		if _, err := fmt.Fprintln(p.w, c); err != nil {
			return err
		}
	}
	return nil
}

// Chart prints the waterfall as an aligned table followed by its summary
func (p *Printer) Chart(chart *domain.WaterfallChart) error {
	if p.json {
		return p.JSON(chart)
	}
	if chart.State == domain.ChartStateNoData {
		_, err := fmt.Fprintf(p.w, "%s: %s\n", chart.Country, chart.Message)
		return err
	}

	fmt.Fprintf(p.w, "%s\n\n", chart.Country)
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tKind\tChange\tGDP\t")
	for _, item := range chart.Items {
		change := p.Amount(item.Delta)
		if item.Kind == domain.ItemKindIncrease && item.Delta >= 0 {
			change = "+" + change
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", item.Year, item.Kind, change, p.Amount(item.End))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if s := chart.Summary; s != nil {
		_, err := fmt.Fprintf(p.w, "\n%d-%d: %s -> %s (net %s, %d up, %d down)\n",
			s.FirstYear, s.LastYear, p.Amount(s.StartValue), p.Amount(s.EndValue),
			p.Amount(s.NetChange), s.Increases, s.Decreases)
		return err
	}
	return nil
}
