// Package exporter writes portfolio records to files users can open in a
// spreadsheet application.
//
// CSVWriter writes UTF-8 CSV with a BOM for Excel compatibility, either to a
// file under the exports directory or to any io.Writer.
//
// WorkbookWriter writes an .xlsx workbook with a records sheet and a summary
// sheet holding the KPI snapshot and the active filters.
//
// Both use the source column codes as headers, so an exported file can be
// uploaded again and yields the same records.
//
// Example usage:
//
//	name := exporter.FileName("Cartera", exporter.FormatCSV, time.Now())
//	path, err := exporter.NewCSVWriter(paths, logger).WriteRecordsFile(name, records)
package exporter
