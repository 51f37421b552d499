package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// GermanyCSV is the two-year table used across packages: a European
// formatted base value followed by a plain increase.
const GermanyCSV = "Country Name;Year;GDP\nGermany;2000;1.000,5\nGermany;2001;1100\n"

// MixedCSV holds several countries, a missing value and rows that the
// cleaner drops.
const MixedCSV = "\ufeffCountry Name;Year;GDP (current US$)\n" +
	"Germany;2000;1.000,5\n" +
	"Germany;2001;1100\n" +
	"Germany;2002;1050\n" +
	"France;2000;800\n" +
	"France;2001;nan\n" +
	"France;2002;850,25\n" +
	"Atlantis;2000;n/a\n" +
	";2000;1\n" +
	"Peru;year;3\n"

// EmptyCSV has a header and no data rows
const EmptyCSV = "Country Name;Year;GDP\n"

// WriteFile writes content to name inside a fresh temp dir and returns the path
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
