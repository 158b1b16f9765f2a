// Package dataprocessing turns uploaded portfolio files into PortfolioRecords.
//
// # Parsing
//
// Parse selects a decoder from the file extension. Workbooks (.xlsx, .xlsm)
// are read with excelize from the configured sheet, or the first sheet that
// has a header row. CSV files may be comma, semicolon or tab delimited. Both
// produce RawRows keyed by the header row.
//
//	rows, err := dataprocessing.ParseFile("cartera.xlsx", dataprocessing.ParseOptions{})
//	if err != nil {
//	    return err
//	}
//	records := dataprocessing.NormalizeRows(rows)
//
// # Normalization
//
// Normalize maps the source column codes (cedmil, nomcli, valtot, ...) onto
// PortfolioRecord fields. Numbers tolerate currency symbols, thousands
// separators and Excel serial dates; missing cells fall back to zero values
// and the risk grade defaults to "A".
package dataprocessing
