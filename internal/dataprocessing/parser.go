package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither workbooks nor CSV.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoHeaderRow is returned when a sheet holds no non-blank row to use as header.
	ErrNoHeaderRow = errors.New("no header row found")
)

// Format identifies a supported upload format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat resolves the format from a file name extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ParseOptions controls spreadsheet decoding.
type ParseOptions struct {
	// SheetName selects a worksheet. When empty or missing, the first sheet
	// with data is used.
	SheetName string
}

// ParseFile decodes the file at path into raw rows.
func ParseFile(path string, opts ParseOptions) ([]RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return Parse(f, filepath.Base(path), opts)
}

// Parse decodes r according to the extension of filename.
func Parse(r io.Reader, filename string, opts ParseOptions) ([]RawRow, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return ParseXLSX(r, opts.SheetName)
	default:
		return ParseCSV(r)
	}
}

// ParseXLSX reads a workbook. Cells are read raw so numbers keep full precision
// and dates arrive as serial day numbers.
func ParseXLSX(r io.Reader, sheet string) ([]RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := selectSheet(f, sheet)
	if err != nil {
		return nil, err
	}
	return rowsToRaw(rows)
}

func selectSheet(f *excelize.File, preferred string) ([][]string, error) {
	opts := excelize.Options{RawCellValue: true}

	if preferred != "" {
		if idx, err := f.GetSheetIndex(preferred); err == nil && idx >= 0 {
			rows, err := f.GetRows(preferred, opts)
			if err != nil {
				return nil, fmt.Errorf("failed to read sheet %q: %w", preferred, err)
			}
			return rows, nil
		}
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		if headerIndex(rows) >= 0 {
			return rows, nil
		}
	}
	return nil, ErrNoHeaderRow
}

// ParseCSV reads delimited text. The delimiter is detected from the header line
// among comma, semicolon and tab.
func ParseCSV(r io.Reader) ([]RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rowsToRaw(rows)
}

func detectDelimiter(data []byte) rune {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		best, bestCount := ',', 0
		for _, d := range []rune{',', ';', '\t'} {
			if n := strings.Count(line, string(d)); n > bestCount {
				best, bestCount = d, n
			}
		}
		return best
	}
	return ','
}

// headerIndex returns the index of the first row with a non-blank cell, or -1.
func headerIndex(rows [][]string) int {
	for i, row := range rows {
		if !isBlank(row) {
			return i
		}
	}
	return -1
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func rowsToRaw(rows [][]string) ([]RawRow, error) {
	h := headerIndex(rows)
	if h < 0 {
		return nil, ErrNoHeaderRow
	}

	header := make([]string, len(rows[h]))
	for i, name := range rows[h] {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}

	out := make([]RawRow, 0, len(rows)-h-1)
	for _, row := range rows[h+1:] {
		if isBlank(row) {
			continue
		}
		raw := make(RawRow, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			raw[header[i]] = cell
		}
		out = append(out, raw)
	}
	return out, nil
}
