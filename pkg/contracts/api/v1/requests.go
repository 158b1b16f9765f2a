// Package api contains the request contracts of the portfolio HTTP API.
package api

// FilterUpdateRequest sets one filter dimension. An empty value or "Todos"
// clears the dimension.
type FilterUpdateRequest struct {
	Dimension string `json:"dimension" validate:"required,oneof=age_range gender amount_range delinquency_range employer city risk_level"`
	Value     string `json:"value" validate:"max=200"`
}

// PaginationRequest represents the detail table paging parameters
type PaginationRequest struct {
	Page     int `json:"page" query:"page" validate:"min=0"`
	PageSize int `json:"page_size" query:"page_size" validate:"oneof=5 10 25 50"`
}

// ExportRequest selects the export file format
type ExportRequest struct {
	Format string `json:"format" validate:"required,oneof=xlsx csv XLSX CSV"`
}
