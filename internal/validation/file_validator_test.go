package validation

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdpwaterfall/internal/config"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("Country;Year;GDP\n"), 0o644))
	return path
}

func TestFileValidator_ValidateTableFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name          string
		path          string
		format        string
		wantErr       bool
		errorContains string
	}{
		{name: "csv", path: writeFile(t, dir, "gdp.csv"), format: config.FormatDSV},
		{name: "xlsx", path: writeFile(t, dir, "gdp.xlsx"), format: config.FormatXLSX},
		{name: "missing", path: filepath.Join(dir, "missing.csv"), format: config.FormatDSV, wantErr: true, errorContains: "missing.csv"},
		{name: "directory", path: dir, format: config.FormatDSV, wantErr: true, errorContains: "is a directory"},
		{name: "excel lock file", path: writeFile(t, dir, "~$gdp.xlsx"), format: config.FormatXLSX, wantErr: true, errorContains: "lock file"},
		{name: "legacy workbook", path: writeFile(t, dir, "gdp.xls"), format: config.FormatXLSX, wantErr: true, errorContains: ".xls"},
	}

	v := NewFileValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateTableFile(tt.path, tt.format)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestFileValidator_MissingFileKeepsCause(t *testing.T) {
	err := NewFileValidator(nil).ValidateFile(filepath.Join(t.TempDir(), "gone.csv"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFileValidator_ValidateOutputFile(t *testing.T) {
	dir := t.TempDir()
	v := NewFileValidator(nil)

	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(dir, "exports", "2024", "germany.csv")
		require.NoError(t, v.ValidateOutputFile(path))
		assert.DirExists(t, filepath.Dir(path))

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Empty(t, entries, "scratch file must be removed")
	})

	t.Run("existing file is replaceable", func(t *testing.T) {
		assert.NoError(t, v.ValidateOutputFile(writeFile(t, dir, "old.csv")))
	})

	t.Run("directory target", func(t *testing.T) {
		err := v.ValidateOutputFile(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is a directory")
	})

	t.Run("parent is a file", func(t *testing.T) {
		parent := writeFile(t, dir, "plain")
		err := v.ValidateOutputFile(filepath.Join(parent, "out.csv"))
		assert.Error(t, err)
	})
}
