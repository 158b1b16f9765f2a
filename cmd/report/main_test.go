package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditpulse/internal/config"
	"creditpulse/internal/portfolio"
	"creditpulse/internal/shared/testutil"
	"creditpulse/internal/validation"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	return cfg
}

func testLogger(t *testing.T) *slog.Logger {
	logger, _ := testutil.NewTestLogger(t)
	return logger
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{
		"-file", "cartera.xlsx",
		"-out", "bogota.csv",
		"-filter", "city=BOGOTA",
		"-filter", " gender = Femenino ",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "cartera.xlsx", opts.File)
	assert.Equal(t, "bogota.csv", opts.Out)
	assert.Equal(t, filterFlags{
		{Dimension: "city", Value: "BOGOTA"},
		{Dimension: "gender", Value: "Femenino"},
	}, opts.Filters)
	assert.Equal(t, "city=BOGOTA,gender=Femenino", opts.Filters.String())
}

func TestParseFlags_Version(t *testing.T) {
	opts, err := parseFlags([]string{"-version"}, io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.ShowVersion)
	assert.Empty(t, opts.Filters)
}

func TestParseFlags_InvalidFilter(t *testing.T) {
	for _, arg := range []string{"city", "=BOGOTA"} {
		_, err := parseFlags([]string{"-filter", arg}, io.Discard)
		assert.Error(t, err, arg)
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	source := testutil.WritePortfolioCSV(t)

	res, err := run(context.Background(), cfg, options{
		File:    source,
		Out:     "bogota.csv",
		Filters: filterFlags{{Dimension: "city", Value: "BOGOTA"}},
	}, testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, source, res.Source)
	assert.Equal(t, filepath.Join(cfg.Paths.BaseDir, "data", "exports", "bogota.csv"), res.OutputPath)
	assert.Equal(t, 2, res.Summary.FilteredCount)
	assert.Equal(t, len(testutil.PortfolioRecords()), res.Summary.TotalCount)

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
}

func TestRun_DefaultsToLatestFile(t *testing.T) {
	cfg := testConfig(t)
	dataDir := filepath.Join(cfg.Paths.BaseDir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "cartera.csv"), []byte(testutil.PortfolioCSV), 0644))

	out := filepath.Join(t.TempDir(), "todo.xlsx")
	res, err := run(context.Background(), cfg, options{Out: out}, testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dataDir, "cartera.csv"), res.Source)
	assert.Equal(t, out, res.OutputPath)
	assert.FileExists(t, out)
	assert.Equal(t, res.Summary.TotalCount, res.Summary.FilteredCount)
}

func TestRun_Errors(t *testing.T) {
	source := testutil.WritePortfolioCSV(t)

	tests := []struct {
		name    string
		opts    options
		wantErr error
		errText string
	}{
		{
			name:    "no portfolio in data directory",
			opts:    options{},
			errText: "no portfolio file found",
		},
		{
			name:    "missing file",
			opts:    options{File: filepath.Join(t.TempDir(), "missing.csv")},
			errText: "does not exist",
		},
		{
			name:    "wrong extension",
			opts:    options{File: writeFile(t, "cartera.txt", testutil.PortfolioCSV)},
			wantErr: validation.ErrNotPortfolioFile,
		},
		{
			name:    "unknown dimension",
			opts:    options{File: source, Filters: filterFlags{{Dimension: "planet", Value: "Mars"}}},
			wantErr: portfolio.ErrUnknownDimension,
		},
		{
			name:    "unsupported output format",
			opts:    options{File: source, Out: "report.pdf"},
			errText: "unsupported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(context.Background(), testConfig(t), tt.opts, testLogger(t))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errText != "" {
				assert.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
