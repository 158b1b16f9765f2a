// Package services implements the business layer between the HTTP handlers and
// the portfolio packages.
//
// DashboardService owns one dataset.Coordinator. Uploads are decoded by
// dataprocessing, normalized, and loaded; filter changes and clears go through
// the coordinator so the filtered records and KPI metrics are always current
// when a call returns. Distribution bundles are memoised in a go-cache keyed by
// the coordinator revision, exports are delegated to the exporter writers, and
// every mutation is published to an EventPublisher (the WebSocket hub in
// production) and counted in infrastructure.BusinessMetrics.
//
// HealthService backs the /api/health endpoints.
//
// Errors returned by the services wrap the sentinel values in errors.go or
// those of the underlying packages, so callers match them with errors.Is.
package services
