package exporter

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Format is a download format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DefaultPrecision is the number of decimals written for amounts
const DefaultPrecision = 2

// ParseFormat maps a query value to a Format
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of f
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename builds the download name for a country's waterfall
func (f Format) Filename(country string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(country)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" {
		name = "country"
	}
	return fmt.Sprintf("%s_gdp_waterfall.%s", name, f)
}

// roundAmount rounds a finite v half away from zero to precision decimals
func roundAmount(v float64, precision int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(precision)
}

// formatAmount renders v with exactly precision decimals, using a comma as
// the decimal mark when decimalComma is set
func formatAmount(v float64, precision int32, decimalComma bool) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	s := roundAmount(v, precision).StringFixed(precision)
	if decimalComma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}
