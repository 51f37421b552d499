package dataprocessing

import (
	"strconv"
	"strings"

	"gdpwaterfall/pkg/contracts/domain"
)

// NoColumn marks a role that could not be mapped to any header
const NoColumn = -1

// ColumnNames holds explicit header names that override the heuristics
type ColumnNames struct {
	Country string
	Year    string
	GDP     string
}

// ColumnMap holds the header index chosen for each role
type ColumnMap struct {
	Country int `json:"country"`
	Year    int `json:"year"`
	GDP     int `json:"gdp"`
}

// HasGDP reports whether a GDP column was found
func (m ColumnMap) HasGDP() bool {
	return m.GDP != NoColumn
}

// InferColumns picks the country, year and GDP columns from a header row.
//
// Name matches are resolved first for all three roles, in the order country,
// year, GDP: an override that names an existing header wins, otherwise the
// first not-yet-used header containing "country", "year" or "gdp"
// (case-insensitive) is taken. Only then do unmatched roles fall back by
// position: country prefers the first column and year the second, and when
// that column already holds another role the first unused column is taken.
// GDP has no fallback.
func InferColumns(header []string, overrides ColumnNames) ColumnMap {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = normalizeHeader(h)
	}

	used := make(map[int]bool, 3)
	pick := func(override, keyword string) int {
		if o := normalizeHeader(override); o != "" {
			for i, name := range names {
				if !used[i] && name == o {
					return i
				}
			}
		}
		for i, name := range names {
			if !used[i] && strings.Contains(name, keyword) {
				return i
			}
		}
		return NoColumn
	}
	fallback := func(preferred int) int {
		if preferred < len(names) && !used[preferred] {
			return preferred
		}
		for i := range names {
			if !used[i] {
				return i
			}
		}
		return NoColumn
	}
	assign := func(idx int) int {
		if idx != NoColumn {
			used[idx] = true
		}
		return idx
	}

	cols := ColumnMap{
		Country: assign(pick(overrides.Country, "country")),
	}
	cols.Year = assign(pick(overrides.Year, "year"))
	cols.GDP = assign(pick(overrides.GDP, "gdp"))

	if cols.Country == NoColumn {
		cols.Country = assign(fallback(0))
	}
	if cols.Year == NoColumn {
		cols.Year = assign(fallback(1))
	}

	return cols
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.Trim(strings.TrimSpace(h), `"`)
	return strings.ToLower(strings.TrimSpace(h))
}

// CleanRow maps a raw row to a Record. Rows without a country or with a year
// that is not an integer are rejected. A bad or missing GDP value is kept as
// NaN.
func CleanRow(row []string, cols ColumnMap) (domain.Record, bool) {
	country := strings.TrimSpace(cell(row, cols.Country))
	if country == "" {
		return domain.Record{}, false
	}

	year, err := strconv.Atoi(strings.TrimSpace(cell(row, cols.Year)))
	if err != nil {
		return domain.Record{}, false
	}

	return domain.Record{
		Country: country,
		Year:    year,
		GDP:     NormalizeNumber(cell(row, cols.GDP)),
	}, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
