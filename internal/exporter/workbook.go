package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"creditpulse/internal/config"
	"creditpulse/pkg/contracts/domain"
)

// Sheet names of the exported workbook.
const (
	RecordsSheet = "Cartera"
	SummarySheet = "Resumen"
)

// WorkbookWriter writes portfolio exports as .xlsx workbooks.
type WorkbookWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer. paths may be nil when only
// WriteTo is used.
func NewWorkbookWriter(paths *config.Paths, logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{paths: paths, logger: logger.With(slog.String("component", "workbook_writer"))}
}

// Workbook is the content of one export.
type Workbook struct {
	Records   []domain.PortfolioRecord
	Metrics   domain.KpiMetrics
	Selection domain.FilterSelection
	// TotalCount is the size of the unfiltered dataset.
	TotalCount int
}

// WriteTo writes the workbook to out.
func (w *WorkbookWriter) WriteTo(out io.Writer, wb Workbook) error {
	f, err := w.build(wb)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile writes the workbook to name and returns its full path. Relative
// names land in the exports directory.
func (w *WorkbookWriter) WriteFile(name string, wb Workbook) (string, error) {
	fullPath := name
	if !filepath.IsAbs(name) && w.paths != nil {
		fullPath = w.paths.ExportPath(name)
	}

	w.logger.Info("Writing workbook",
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(wb.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := w.build(wb)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return fullPath, nil
}

func (w *WorkbookWriter) build(wb Workbook) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), RecordsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name records sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRecordsSheet(f, wb.Records, bold); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummarySheet(f, wb, bold); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeRecordsSheet(f *excelize.File, records []domain.PortfolioRecord, headerStyle int) error {
	header := make([]any, len(RecordHeaders))
	for i, h := range RecordHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(RecordsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	if err := f.SetRowStyle(RecordsSheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	for i, r := range records {
		row := []any{
			r.NationalID, r.FullName, r.BirthDate, r.Sex, r.Age, r.City, r.Employer,
			r.CreditNumber, r.InstallmentAmount, r.TotalValue, r.StartDate, r.EndDate,
			r.CapitalBalance, r.Installments, r.InstallmentsPaid, r.DelinquencyDays,
			r.Quality, r.RiskGrade, r.PastDueBalance,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(RecordsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return nil
}

// SummaryRows returns the label/value pairs of the summary sheet.
func SummaryRows(wb Workbook) [][2]string {
	m := wb.Metrics
	rows := [][2]string{
		{"Cartera Total", FormatCurrency(m.TotalPortfolio)},
		{"Saldo Capital", FormatCurrency(m.CapitalBalance)},
		{"Monto en Mora", FormatCurrency(m.DelinquencyAmount)},
		{"Índice de Mora", FormatPercent(m.DelinquencyRate)},
		{"Créditos Activos", formatInt(m.ActiveCredits)},
		{"Clientes en Mora", formatInt(m.ClientsInDelinquency)},
		{"Días Promedio de Mora", formatInt(int(math.Round(m.AverageDelinquencyDays)))},
		{"Cartera Alto Riesgo", FormatCurrency(m.HighRiskPortfolio)},
		{"Índice Alto Riesgo", FormatPercent(m.HighRiskRate)},
		{"Registros Filtrados", fmt.Sprintf("%d de %d", len(wb.Records), wb.TotalCount)},
	}

	filters := []struct{ label, value string }{
		{"Edad", wb.Selection.AgeRange},
		{"Género", wb.Selection.Gender},
		{"Monto", wb.Selection.AmountRange},
		{"Mora", wb.Selection.DelinquencyRange},
		{"Empresa", wb.Selection.Employer},
		{"Ciudad", wb.Selection.City},
		{"Riesgo", wb.Selection.RiskLevel},
	}
	for _, fl := range filters {
		if fl.value != "" {
			rows = append(rows, [2]string{"Filtro " + fl.label, fl.value})
		}
	}
	return rows
}

func writeSummarySheet(f *excelize.File, wb Workbook, headerStyle int) error {
	if err := f.SetSheetRow(SummarySheet, "A1", &[]any{"Indicador", "Valor"}); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	if err := f.SetRowStyle(SummarySheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style summary header: %w", err)
	}
	for i, kv := range SummaryRows(wb) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &[]any{kv[0], kv[1]}); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "B", 28)
}
