package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"creditpulse/internal/analytics"
	"creditpulse/internal/config"
	"creditpulse/internal/dataprocessing"
	"creditpulse/internal/dataset"
	"creditpulse/internal/exporter"
	"creditpulse/internal/infrastructure"
	"creditpulse/internal/portfolio"
	"creditpulse/pkg/contracts/domain"
	"creditpulse/pkg/contracts/events"
)

const ckDistributions = "distributions_rev_%d"

// EventPublisher receives dataset change notifications.
type EventPublisher interface {
	Publish(msgType events.MessageType, data interface{})
}

// Summary is the KPI snapshot of the current filtered view.
type Summary struct {
	State         dataset.State          `json:"state"`
	Revision      uint64                 `json:"revision"`
	Source        string                 `json:"source,omitempty"`
	Selection     domain.FilterSelection `json:"selection"`
	Metrics       domain.KpiMetrics      `json:"metrics"`
	FilteredCount int                    `json:"filtered_count"`
	TotalCount    int                    `json:"total_count"`
}

// FilterState is the option universe with the active selection.
type FilterState struct {
	Options   domain.FilterOptions   `json:"options"`
	Selection domain.FilterSelection `json:"selection"`
}

// RecordsPage is one page of the filtered detail table.
type RecordsPage struct {
	Records    []domain.PortfolioRecord `json:"records"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
	TotalPages int                      `json:"total_pages"`
	// From and To are 1-based and inclusive; both are 0 for an empty view.
	From  int `json:"from"`
	To    int `json:"to"`
	Total int `json:"total"`
}

// DashboardService loads portfolios and serves the filtered dashboard views.
type DashboardService struct {
	cfg         *config.Config
	coordinator *dataset.Coordinator
	cache       *cache.Cache
	csv         *exporter.CSVWriter
	workbook    *exporter.WorkbookWriter
	metrics     *infrastructure.BusinessMetrics
	publisher   EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// NewDashboardService creates a dashboard service. metrics, publisher and logger
// may be nil.
func NewDashboardService(cfg *config.Config, paths *config.Paths, metrics *infrastructure.BusinessMetrics, publisher EventPublisher, logger *slog.Logger) *DashboardService {
	if cfg == nil {
		cfg = config.Default()
	}
	if metrics == nil {
		metrics = infrastructure.NoopBusinessMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DashboardService{
		cfg:         cfg,
		coordinator: dataset.NewCoordinator(),
		cache:       cache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval),
		csv:         exporter.NewCSVWriter(paths, logger),
		workbook:    exporter.NewWorkbookWriter(paths, logger),
		metrics:     metrics,
		publisher:   publisher,
		tracer:      otel.Tracer(infrastructure.ServiceName + "/services"),
		logger:      logger.With(slog.String("component", "dashboard_service")),
		now:         time.Now,
	}
}

// LoadFile decodes an uploaded portfolio and makes it the current dataset.
// The filter selection is reset.
func (s *DashboardService) LoadFile(ctx context.Context, filename string, r io.Reader) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "portfolio.load",
		trace.WithAttributes(attribute.String("file.name", filename)))
	defer span.End()

	records, err := s.decode(filename, r)
	if err != nil {
		return nil, s.loadFailed(ctx, filename, err)
	}

	start := time.Now()
	snap, err := s.coordinator.Load(filename, records)
	if err != nil {
		return nil, s.loadFailed(ctx, filename, err)
	}
	infrastructure.RecordRecompute(ctx, s.metrics, "load", time.Since(start))

	s.metrics.UploadsTotal.Add(ctx, 1)
	s.metrics.RowsLoaded.Add(ctx, int64(len(records)))
	span.SetAttributes(attribute.Int("portfolio.records", len(records)))

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", filename),
		slog.Int("record_count", snap.TotalCount),
		slog.Uint64("revision", snap.Revision))

	s.publish(ctx, events.MessageTypeDatasetLoaded, snap)
	return summaryOf(snap), nil
}

// LoadPath loads a portfolio file from disk.
func (s *DashboardService) LoadPath(ctx context.Context, path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open portfolio file: %w", err)
	}
	defer f.Close()

	return s.LoadFile(ctx, filepath.Base(path), f)
}

func (s *DashboardService) decode(filename string, r io.Reader) ([]domain.PortfolioRecord, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.cfg.AllowsExtension(ext) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFileType, ext)
	}

	limit := s.cfg.Upload.MaxBytes
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, limit)
	}

	rows, err := dataprocessing.Parse(bytes.NewReader(data), filename,
		dataprocessing.ParseOptions{SheetName: s.cfg.Upload.SheetName})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return dataprocessing.NormalizeRows(rows), nil
}

func (s *DashboardService) loadFailed(ctx context.Context, filename string, err error) error {
	s.metrics.UploadFailures.Add(ctx, 1)
	infrastructure.RecordError(ctx, err)
	s.logger.WarnContext(ctx, "dataset load rejected",
		slog.String("source", filename),
		slog.String("error", err.Error()))
	return err
}

// Summary returns the KPI snapshot of the current view.
func (s *DashboardService) Summary(ctx context.Context) *Summary {
	return summaryOf(s.coordinator.Snapshot())
}

// Filters returns the option universe and current selection.
func (s *DashboardService) Filters(ctx context.Context) *FilterState {
	snap := s.coordinator.Snapshot()
	return &FilterState{Options: snap.Options, Selection: snap.Selection}
}

// SetFilter sets one dimension by name. The "Todos" sentinel and "" unset it.
func (s *DashboardService) SetFilter(ctx context.Context, dimension, value string) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "portfolio.set_filter", trace.WithAttributes(
		attribute.String("filter.dimension", dimension),
		attribute.String("filter.value", value)))
	defer span.End()

	dim, err := portfolio.ParseDimension(dimension)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	start := time.Now()
	snap, err := s.coordinator.SetFilter(dim, value)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	infrastructure.RecordRecompute(ctx, s.metrics, "set_filter", time.Since(start))
	s.metrics.FilterChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("dimension", string(dim))))

	s.logger.DebugContext(ctx, "filter updated",
		slog.String("dimension", string(dim)),
		slog.String("value", value),
		slog.Int("filtered_count", snap.FilteredCount))

	s.publish(ctx, events.MessageTypeFiltersChanged, snap)
	return summaryOf(snap), nil
}

// ClearFilters resets every dimension.
func (s *DashboardService) ClearFilters(ctx context.Context) *Summary {
	ctx, span := s.tracer.Start(ctx, "portfolio.clear_filters")
	defer span.End()

	start := time.Now()
	snap := s.coordinator.ClearFilters()
	infrastructure.RecordRecompute(ctx, s.metrics, "clear_filters", time.Since(start))
	s.metrics.FilterChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("dimension", "all")))

	s.publish(ctx, events.MessageTypeFiltersCleared, snap)
	return summaryOf(snap)
}

// Distributions returns every chart series of the current view. Bundles are
// cached per revision; any mutation moves the revision.
func (s *DashboardService) Distributions(ctx context.Context) domain.Distributions {
	snap := s.coordinator.Snapshot()
	key := fmt.Sprintf(ckDistributions, snap.Revision)

	if cached, found := s.cache.Get(key); found {
		s.metrics.DistributionHits.Add(ctx, 1)
		return cached.(domain.Distributions)
	}

	s.metrics.DistributionMisses.Add(ctx, 1)
	dist := analytics.BuildDistributions(snap.Records)
	s.cache.Set(key, dist, cache.DefaultExpiration)
	return dist
}

// Records returns one page of the filtered records. Pages are 0-based; page 0
// is always valid.
func (s *DashboardService) Records(ctx context.Context, page, pageSize int) (*RecordsPage, error) {
	if !slices.Contains(config.PageSizes, pageSize) {
		return nil, fmt.Errorf("%w: %d (allowed %v)", ErrInvalidPageSize, pageSize, config.PageSizes)
	}
	if page < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}

	records := s.coordinator.Snapshot().Records
	total := len(records)
	totalPages := (total + pageSize - 1) / pageSize
	if page > 0 && page >= totalPages {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidPage, page, totalPages)
	}

	from := page * pageSize
	to := min(from+pageSize, total)

	result := &RecordsPage{
		Records:    records[from:to],
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      total,
	}
	if total > 0 {
		result.From = from + 1
		result.To = to
	}
	return result, nil
}

// RiskMatrix returns the risk-grade reference table.
func (s *DashboardService) RiskMatrix() []domain.RiskGradeInfo {
	return portfolio.RiskMatrix()
}

// Export writes the filtered records in format to out and returns the
// suggested download file name.
func (s *DashboardService) Export(ctx context.Context, format exporter.Format, out io.Writer) (string, error) {
	ctx, span := s.tracer.Start(ctx, "portfolio.export",
		trace.WithAttributes(attribute.String("export.format", string(format))))
	defer span.End()

	snap := s.coordinator.Snapshot()
	if snap.State == dataset.StateEmpty {
		return "", ErrNoDataLoaded
	}

	var err error
	switch format {
	case exporter.FormatXLSX:
		err = s.workbook.WriteTo(out, workbookOf(snap))
	case exporter.FormatCSV:
		err = s.csv.WriteRecords(out, snap.Records)
	default:
		err = fmt.Errorf("%w: %q", exporter.ErrUnsupportedFormat, format)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return "", err
	}

	s.metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", string(format))))
	return exporter.FileName(exporter.RecordsSheet, format, s.now()), nil
}

// ExportFile writes the filtered records to name, relative names landing in the
// exports directory, and returns the full path.
func (s *DashboardService) ExportFile(ctx context.Context, name string) (string, error) {
	format, err := exporter.ParseFormat(strings.TrimPrefix(filepath.Ext(name), "."))
	if err != nil {
		return "", err
	}

	snap := s.coordinator.Snapshot()
	if snap.State == dataset.StateEmpty {
		return "", ErrNoDataLoaded
	}

	var fullPath string
	if format == exporter.FormatXLSX {
		fullPath, err = s.workbook.WriteFile(name, workbookOf(snap))
	} else {
		fullPath, err = s.csv.WriteRecordsFile(name, snap.Records)
	}
	if err != nil {
		return "", err
	}

	s.metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", string(format))))
	s.logger.InfoContext(ctx, "export written",
		slog.String("path", fullPath),
		slog.Int("record_count", snap.FilteredCount))
	return fullPath, nil
}

func (s *DashboardService) publish(ctx context.Context, msgType events.MessageType, snap dataset.Snapshot) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(msgType, events.DatasetChanged{
		Revision:      snap.Revision,
		Source:        snap.Source,
		Selection:     snap.Selection,
		Metrics:       snap.Metrics,
		FilteredCount: snap.FilteredCount,
		TotalCount:    snap.TotalCount,
	})
	s.metrics.WebSocketBroadcasts.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(msgType))))
}

func summaryOf(snap dataset.Snapshot) *Summary {
	return &Summary{
		State:         snap.State,
		Revision:      snap.Revision,
		Source:        snap.Source,
		Selection:     snap.Selection,
		Metrics:       snap.Metrics,
		FilteredCount: snap.FilteredCount,
		TotalCount:    snap.TotalCount,
	}
}

func workbookOf(snap dataset.Snapshot) exporter.Workbook {
	return exporter.Workbook{
		Records:    snap.Records,
		Metrics:    snap.Metrics,
		Selection:  snap.Selection,
		TotalCount: snap.TotalCount,
	}
}
