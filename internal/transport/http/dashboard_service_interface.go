package http

import (
	"context"
	"io"

	"creditpulse/internal/exporter"
	"creditpulse/internal/services"
	"creditpulse/pkg/contracts/domain"
)

// DashboardServiceInterface defines the portfolio operations exposed over HTTP
type DashboardServiceInterface interface {
	LoadFile(ctx context.Context, filename string, r io.Reader) (*services.Summary, error)
	Summary(ctx context.Context) *services.Summary
	Filters(ctx context.Context) *services.FilterState
	SetFilter(ctx context.Context, dimension, value string) (*services.Summary, error)
	ClearFilters(ctx context.Context) *services.Summary
	Distributions(ctx context.Context) domain.Distributions
	Records(ctx context.Context, page, pageSize int) (*services.RecordsPage, error)
	RiskMatrix() []domain.RiskGradeInfo
	Export(ctx context.Context, format exporter.Format, out io.Writer) (string, error)
}
