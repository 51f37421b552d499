package domain

import (
	"encoding/json"
	"math"
)

// Record is one cleaned row of the GDP table.
// A missing or malformed GDP value is stored as NaN.
type Record struct {
	Country string  `json:"country" validate:"required"`
	Year    int     `json:"year"`
	GDP     float64 `json:"gdp"`
}

// HasGDP reports whether the record carries a usable GDP value
func (r Record) HasGDP() bool {
	return !math.IsNaN(r.GDP) && !math.IsInf(r.GDP, 0)
}

// MarshalJSON encodes a missing GDP as null
func (r Record) MarshalJSON() ([]byte, error) {
	out := struct {
		Country string   `json:"country"`
		Year    int      `json:"year"`
		GDP     *float64 `json:"gdp"`
	}{Country: r.Country, Year: r.Year}
	if r.HasGDP() {
		gdp := r.GDP
		out.GDP = &gdp
	}
	return json.Marshal(out)
}

// Series is the year-ordered sequence of records for one country.
// It is built once when the dataset loads and never modified afterwards.
type Series []Record

// Country returns the country the series belongs to, or "" when empty
func (s Series) Country() string {
	if len(s) == 0 {
		return ""
	}
	return s[0].Country
}

// Valid returns the records with a usable GDP value, preserving order
func (s Series) Valid() Series {
	out := make(Series, 0, len(s))
	for _, r := range s {
		if r.HasGDP() {
			out = append(out, r)
		}
	}
	return out
}

// Years returns the first and last year of the series
func (s Series) Years() (first, last int) {
	if len(s) == 0 {
		return 0, 0
	}
	return s[0].Year, s[len(s)-1].Year
}

// DatasetState describes whether any data was loaded
type DatasetState string

const (
	DatasetStateOK    DatasetState = "ok"
	DatasetStateEmpty DatasetState = "empty_dataset"
)

// CountryList is the payload used to populate a country selector
type CountryList struct {
	Countries []string     `json:"countries"`
	Count     int          `json:"count"`
	State     DatasetState `json:"state"`
}
