package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// BusinessMetrics are the instruments recorded by the HTTP middleware and
// the dashboard service.
type BusinessMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	UploadsTotal        metric.Int64Counter
	UploadFailures      metric.Int64Counter
	RowsLoaded          metric.Int64Counter
	FilterChanges       metric.Int64Counter
	RecomputeDuration   metric.Float64Histogram
	DistributionHits    metric.Int64Counter
	DistributionMisses  metric.Int64Counter
	ExportsTotal        metric.Int64Counter
	WebSocketBroadcasts metric.Int64Counter
}

// CreateBusinessMetrics registers every instrument on meter.
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var m BusinessMetrics

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.HTTPRequestsTotal, "http_requests_total", "HTTP requests served"},
		{&m.UploadsTotal, "portfolio_uploads_total", "Portfolio files loaded"},
		{&m.UploadFailures, "portfolio_upload_failures_total", "Portfolio uploads rejected"},
		{&m.RowsLoaded, "portfolio_rows_loaded_total", "Records loaded from portfolio files"},
		{&m.FilterChanges, "portfolio_filter_changes_total", "Filter updates and clears"},
		{&m.DistributionHits, "portfolio_distribution_cache_hits_total", "Distribution bundles served from cache"},
		{&m.DistributionMisses, "portfolio_distribution_cache_misses_total", "Distribution bundles computed on demand"},
		{&m.ExportsTotal, "portfolio_exports_total", "Exports generated"},
		{&m.WebSocketBroadcasts, "websocket_broadcasts_total", "Dashboard events broadcast"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&m.HTTPRequestDuration, "http_request_duration_seconds", "HTTP request latency"},
		{&m.RecomputeDuration, "portfolio_recompute_duration_seconds", "Time spent recomputing filtered views"},
	}
	for _, h := range histograms {
		histogram, err := meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s"))
		if err != nil {
			return nil, err
		}
		*h.dst = histogram
	}

	active, err := meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("HTTP requests in flight"))
	if err != nil {
		return nil, err
	}
	m.HTTPActiveRequests = active

	return &m, nil
}

// NoopBusinessMetrics returns instruments that record nothing.
func NoopBusinessMetrics() *BusinessMetrics {
	m, _ := CreateBusinessMetrics(noop.NewMeterProvider().Meter(MeterName))
	return m
}

// RecordRecompute records a recomputation triggered by operation (load,
// set_filter, clear_filters) on the histogram and the active span.
func RecordRecompute(ctx context.Context, metrics *BusinessMetrics, operation string, duration time.Duration) {
	if metrics == nil {
		return
	}
	op := attribute.String("operation", operation)
	metrics.RecomputeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(op))
	spanEvent(ctx, "portfolio.recomputed", op, attribute.Float64("duration_seconds", duration.Seconds()))
}
