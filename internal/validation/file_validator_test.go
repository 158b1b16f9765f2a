package validation

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePortfolioFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cartera.xlsx", "cartera.CSV", "notas.pdf", "~$cartera.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vacia.csv"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "carpeta.csv"), 0o755))
	v := NewFileValidator([]string{".xlsx", ".xlsm", ".csv"}, nil)

	tests := []struct {
		name         string
		path         string
		wantErr      bool
		wantSentinel bool
	}{
		{"empty", filepath.Join(dir, "vacia.csv"), true, false},
		{"xlsx", filepath.Join(dir, "cartera.xlsx"), false, false},
		{"upper-case csv", filepath.Join(dir, "cartera.CSV"), false, false},
		{"pdf", filepath.Join(dir, "notas.pdf"), true, true},
		{"lock file", filepath.Join(dir, "~$cartera.xlsx"), true, true},
		{"missing", filepath.Join(dir, "nope.csv"), true, false},
		{"directory", filepath.Join(dir, "carpeta.csv"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePortfolioFile(tt.path)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantSentinel, errors.Is(err, ErrNotPortfolioFile))
		})
	}

	assert.ErrorIs(t, v.ValidatePortfolioFile(filepath.Join(dir, "vacia.csv")), ErrEmptyFile)
	assert.ErrorIs(t, v.ValidatePortfolioFile(filepath.Join(dir, "nope.csv")), fs.ErrNotExist)
}

func TestValidatePortfolioFile_NameCheckedFirst(t *testing.T) {
	v := NewFileValidator([]string{".csv"}, nil)

	err := v.ValidatePortfolioFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, ErrNotPortfolioFile)
	assert.NotErrorIs(t, err, fs.ErrNotExist)
}

func TestValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil, nil)
	dir := filepath.Join(t.TempDir(), "exports", "mayo")

	require.NoError(t, v.ValidateOutputDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file is removed")
}
