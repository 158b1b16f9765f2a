package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"creditpulse/internal/config"
	"creditpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RecordHeaders are the source column codes, in export order.
var RecordHeaders = []string{
	"cedmil", "nomcli", "fechanacimiento", "sexo", "edad", "ciucli", "codemp",
	"numlib", "valcuo", "valtot", "fecini", "fecfin", "salcapital", "ncuotas",
	"npagos", "ndias", "calidad", "calif", "vencido",
}

// RecordRow renders r in RecordHeaders order.
func RecordRow(r domain.PortfolioRecord) []string {
	return []string{
		r.NationalID,
		r.FullName,
		r.BirthDate,
		r.Sex,
		formatInt(r.Age),
		r.City,
		r.Employer,
		r.CreditNumber,
		formatFloat(r.InstallmentAmount),
		formatFloat(r.TotalValue),
		r.StartDate,
		r.EndDate,
		formatFloat(r.CapitalBalance),
		formatInt(r.Installments),
		formatInt(r.InstallmentsPaid),
		formatInt(r.DelinquencyDays),
		r.Quality,
		r.RiskGrade,
		formatFloat(r.PastDueBalance),
	}
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSVTo writes the options to w.
func (w *CSVWriter) WriteCSVTo(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteRecords writes portfolio records with headers and a BOM to out.
func (w *CSVWriter) WriteRecords(out io.Writer, records []domain.PortfolioRecord) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = RecordRow(r)
	}
	return w.WriteCSVTo(out, WriteOptions{
		Headers:   RecordHeaders,
		Records:   rows,
		BOMPrefix: true,
	})
}

// WriteRecordsFile writes portfolio records to a file and returns its full path.
// Relative names land in the exports directory.
func (w *CSVWriter) WriteRecordsFile(name string, records []domain.PortfolioRecord) (string, error) {
	fullPath := w.resolvePath(name)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", name),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if err := w.WriteRecords(file, records); err != nil {
		file.Close()
		return "", err
	}
	return fullPath, file.Close()
}

// resolvePath resolves a path to the exports directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.ExportPath(filePath)
}
