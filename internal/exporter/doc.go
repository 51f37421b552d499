// Package exporter writes waterfall charts as downloadable tables.
//
// CSV output uses the same semicolon layout the GDP table is read from, with
// an optional UTF-8 BOM so spreadsheet programs detect the encoding. XLSX
// output holds the bars on one sheet and the summary on a second.
//
// Amounts are rounded half away from zero to a fixed precision before they
// are written.
package exporter
