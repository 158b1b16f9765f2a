// Package http implements the HTTP handlers of the portfolio dashboard.
//
// Handlers stay thin: they decode and validate requests, call the dashboard
// service and render JSON. Every failure goes through errors.ErrorHandler so
// clients always receive RFC 7807 problem documents.
//
// Routes mounted under /api/portfolio:
//
//	POST   /upload            load a portfolio file (multipart field "file")
//	GET    /summary           KPI metrics and current selection
//	GET    /distributions     chart series for the filtered records
//	GET    /filters           filter options and selection
//	PUT    /filters           set one filter dimension
//	DELETE /filters           clear every filter
//	GET    /records           paged detail table
//	GET    /risk-matrix       risk grade reference table
//	GET    /export/{format}   download filtered records as xlsx or csv
package http
