// Package dataprocessing turns a raw GDP table into per-country waterfall
// charts. It consolidates parsing, cleaning and chart construction so the
// file, HTTP and CLI layers share one code path.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Parser: reads semicolon separated text or an Excel sheet into rows
// 2. Cleaner: infers the country, year and GDP columns and drops rows without a usable year or country
// 3. Dataset: groups the cleaned records per country, sorted by year
// 4. Waterfall: builds the base bar and the yearly increases and decreases
//
// # Usage
//
//	result, err := dataprocessing.ParseDSV(f, dataprocessing.ParseOptions{})
//	if err != nil {
//	    return err
//	}
//	dataset := dataprocessing.NewDataset(result.Records)
//	series, ok := dataset.Series("Germany")
//	items := dataprocessing.BuildWaterfall(series)
//
// # Numbers
//
// NormalizeNumber accepts both "1.000,5" and "1,000.5": the last separator is
// the decimal mark and every other separator is a thousands mark. Missing or
// unreadable values become NaN and are skipped by BuildWaterfall, never
// treated as zero.
//
// # Data Flow
//
//	Table → Parser → Rows → CleanRow → Records → Dataset → BuildWaterfall → Items
//
// The Dataset is immutable after NewDataset returns and is safe for
// concurrent readers.
package dataprocessing
