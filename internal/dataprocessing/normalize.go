package dataprocessing

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// NormalizeNumber converts a locale-flexible numeric string into a float64.
// Missing or unusable input yields NaN; it never fails.
//
// The last '.' or ',' in the input is taken as the decimal mark and every
// earlier separator is dropped as a grouping mark, so "1.000,5" and
// "1,000.5" both read as 1000.5 while a lone comma ("2,5") is a decimal
// comma. The rule does not look at digit counts: a single separator followed
// by exactly three digits is still the decimal mark, so "1.000" and "1,000"
// read as 1.0, not 1000. After that only [0-9eE+.-] survive and the longest
// parseable prefix is used.
func NormalizeNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN()
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if last := strings.LastIndexAny(s, ".,"); last >= 0 {
		var b strings.Builder
		b.Grow(len(s))
		for i := 0; i < len(s); i++ {
			c := s[i]
			if c == '.' || c == ',' {
				if i == last {
					b.WriteByte('.')
				}
				continue
			}
			b.WriteByte(c)
		}
		s = b.String()
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == 'e', r == 'E', r == '+', r == '.', r == '-':
			return r
		}
		return -1
	}, s)

	v, ok := parseLenient(s)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// parseLenient parses s as a float, falling back to its longest valid prefix
func parseLenient(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	} else if errors.Is(err, strconv.ErrRange) {
		return v, true
	}
	for end := len(s) - 1; end > 0; end-- {
		v, err := strconv.ParseFloat(s[:end], 64)
		if err == nil || errors.Is(err, strconv.ErrRange) {
			return v, true
		}
	}
	return 0, false
}

// FormatNumber renders v so that NormalizeNumber reads it back unchanged.
// NaN renders as "NaN".
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
