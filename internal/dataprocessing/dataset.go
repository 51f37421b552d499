package dataprocessing

import (
	"sort"
	"strings"

	"gdpwaterfall/pkg/contracts/domain"
)

// Dataset is the parsed GDP table grouped by country.
// It is populated once and only read afterwards, so it is safe to share
// between goroutines.
type Dataset struct {
	series    map[string]domain.Series
	countries []string
	records   int
}

// NewDataset groups records by country and orders each series by year.
// Rows sharing a (country, year) pair are all kept, in input order.
func NewDataset(records []domain.Record) *Dataset {
	ds := &Dataset{
		series:  make(map[string]domain.Series),
		records: len(records),
	}
	for _, r := range records {
		ds.series[r.Country] = append(ds.series[r.Country], r)
	}
	for country, s := range ds.series {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Year < s[j].Year })
		ds.countries = append(ds.countries, country)
	}
	sort.Strings(ds.countries)
	return ds
}

// Countries returns the distinct country names in sorted order
func (ds *Dataset) Countries() []string {
	if ds == nil {
		return []string{}
	}
	out := make([]string, len(ds.countries))
	copy(out, ds.countries)
	return out
}

// Resolve maps a requested name to the stored country name.
// An exact match wins; otherwise the first case-insensitive match in sorted
// order is used.
func (ds *Dataset) Resolve(country string) (string, bool) {
	if ds == nil {
		return "", false
	}
	country = strings.TrimSpace(country)
	if _, ok := ds.series[country]; ok {
		return country, true
	}
	for _, name := range ds.countries {
		if strings.EqualFold(name, country) {
			return name, true
		}
	}
	return "", false
}

// Series returns the year-ordered records of a country
func (ds *Dataset) Series(country string) (domain.Series, bool) {
	name, ok := ds.Resolve(country)
	if !ok {
		return nil, false
	}
	return ds.series[name], true
}

// Len returns the number of countries
func (ds *Dataset) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.countries)
}

// RecordCount returns the number of records across all countries
func (ds *Dataset) RecordCount() int {
	if ds == nil {
		return 0
	}
	return ds.records
}

// Empty reports whether the dataset holds no records
func (ds *Dataset) Empty() bool {
	return ds.RecordCount() == 0
}
