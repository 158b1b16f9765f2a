package dataprocessing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves rows to a new workbook in a temporary directory, starting at
// startRow on the named sheet.
func writeWorkbook(t *testing.T, sheet string, startRow int, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != f.GetSheetName(0) {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "cartera.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseFileXLSX(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", 1, [][]any{
		{"CEDMIL", " NomCli ", "SALCAPITAL", "CALIF", "FECINI"},
		{"1001", "ANA", 2500000.5, "a", 45292},
		{},
		{"1002", "LUIS", 100, "E", 45658},
	})

	rows, err := ParseFile(path, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "1001", rows[0]["cedmil"])
	assert.Equal(t, "ANA", rows[0]["nomcli"])
	assert.Equal(t, "2500000.5", rows[0]["salcapital"])

	records := NormalizeRows(rows)
	assert.Equal(t, 2_500_000.5, records[0].CapitalBalance)
	assert.Equal(t, "A", records[0].RiskGrade)
	assert.Equal(t, "2024-01-01", records[0].StartDate)
	assert.Equal(t, "E", records[1].RiskGrade)
}

func TestParseFileXLSXHeaderBelowBlankRows(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", 3, [][]any{
		{"cedmil", "ciucli"},
		{"1", "CALI"},
	})

	rows, err := ParseFile(path, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CALI", rows[0]["ciucli"])
}

func TestParseFileXLSXPreferredSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"cedmil"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"first"}))
	_, err := f.NewSheet("Cartera")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Cartera", "A1", &[]any{"cedmil"}))
	require.NoError(t, f.SetSheetRow("Cartera", "A2", &[]any{"second"}))
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))

	rows, err := ParseFile(path, ParseOptions{SheetName: "Cartera"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "second", rows[0]["cedmil"])

	rows, err = ParseFile(path, ParseOptions{SheetName: "Missing"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "first", rows[0]["cedmil"])
}

func TestParseFileXLSXEmptyWorkbook(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := ParseFile(path, ParseOptions{})
	assert.ErrorIs(t, err, ErrNoHeaderRow)
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"comma", "cedmil,ciucli,salcapital\n1,CALI,100\n2,PASTO,200\n"},
		{"semicolon", "cedmil;ciucli;salcapital\n1;CALI;100\n2;PASTO;200\n"},
		{"tab", "cedmil\tciucli\tsalcapital\n1\tCALI\t100\n2\tPASTO\t200\n"},
		{"bom and blank lines", "\xEF\xBB\xBFcedmil,ciucli,salcapital\n\n1,CALI,100\n,,\n2,PASTO,200\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ParseCSV(strings.NewReader(tt.input))
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, RawRow{"cedmil": "1", "ciucli": "CALI", "salcapital": "100"}, rows[0])
			assert.Equal(t, "PASTO", rows[1]["ciucli"])
		})
	}
}

func TestParseCSVShortAndLongRows(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader("cedmil,ciucli\n1\n2,CALI,extra\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, RawRow{"cedmil": "1"}, rows[0])
	assert.Equal(t, RawRow{"cedmil": "2", "ciucli": "CALI"}, rows[1])
}

func TestParseCSVHeaderOnly(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader("cedmil,ciucli\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeaderRow)
}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("Cartera.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = DetectFormat("cartera.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = DetectFormat("cartera.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.csv"), ParseOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
