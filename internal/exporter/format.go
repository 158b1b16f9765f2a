package exporter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FilePrefix starts every export file name.
const FilePrefix = "CreditDashboard"

// ErrUnsupportedFormat is returned for export formats other than xlsx and csv.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat resolves a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName builds CreditDashboard_<view>_<YYYY-MM-DD>.<ext>.
func FileName(view string, format Format, at time.Time) string {
	view = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':':
			return '_'
		}
		return r
	}, strings.TrimSpace(view))
	if view == "" {
		view = "Cartera"
	}
	return fmt.Sprintf("%s_%s_%s.%s", FilePrefix, view, at.Format(time.DateOnly), format)
}

// formatFloat formats a float64 value for CSV output without trailing zeros
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// FormatCurrency renders an amount in Colombian pesos without decimals, using a
// dot as thousands separator: 1234567.8 -> "$ 1.234.568".
func FormatCurrency(amount float64) string {
	rounded := math.Round(amount)
	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}
	digits := strconv.FormatFloat(rounded, 'f', 0, 64)

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "$ " + b.String()
}

// FormatPercent renders a percentage with two decimals: 16.666 -> "16.67%".
func FormatPercent(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64) + "%"
}
