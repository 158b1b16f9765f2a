package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"creditpulse/pkg/contracts"
)

// ClientCounter reports connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// SummaryProvider reports the current dataset summary.
type SummaryProvider interface {
	Summary(ctx context.Context) *Summary
}

// HealthService provides health check functionality
type HealthService struct {
	exportsDir string
	dashboard  SummaryProvider
	clients    ClientCounter
	startTime  time.Time
	logger     *slog.Logger
}

// Readiness states reported by ReadinessCheck and ServiceHealth.
const (
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. dashboard and clients may be nil.
func NewHealthService(exportsDir string, dashboard SummaryProvider, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthService{
		exportsDir: exportsDir,
		dashboard:  dashboard,
		clients:    clients,
		startTime:  time.Now(),
		logger:     logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck returns readiness status. An empty dataset does not make the
// service unready; it is reported for information only.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]interface{}),
	}

	exports := hs.checkExportsHealth()
	status.Services["exports"] = exports
	status.Services["websocket"] = hs.checkWebSocketHealth()
	status.Services["dataset"] = hs.datasetStatus(ctx)

	if exports.Status != StatusReady {
		status.Status = StatusNotReady
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// VersionInfo is the body of GET /api/version.
type VersionInfo struct {
	contracts.BuildInfo
	Uptime    float64   `json:"uptime"`
	StartTime time.Time `json:"start_time"`
}

// Version reports the build of the running binary and its uptime in seconds.
func (hs *HealthService) Version() VersionInfo {
	return VersionInfo{
		BuildInfo: contracts.CurrentBuild(),
		Uptime:    time.Since(hs.startTime).Seconds(),
		StartTime: hs.startTime,
	}
}

func (hs *HealthService) checkExportsHealth() ServiceHealth {
	if hs.exportsDir == "" {
		return ServiceHealth{Status: StatusReady, Message: "Exports are streamed only"}
	}

	info, err := os.Stat(hs.exportsDir)
	if err != nil {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("Exports directory unavailable: %v", err),
		}
	}
	if !info.IsDir() {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("Exports path is not a directory: %s", hs.exportsDir),
		}
	}

	return ServiceHealth{Status: StatusReady, Message: "Exports directory is available"}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	health := ServiceHealth{
		Status:  StatusReady,
		Message: "WebSocket service is healthy",
		Uptime:  time.Since(hs.startTime).String(),
	}
	if hs.clients != nil {
		health.Message = fmt.Sprintf("%d clients connected", hs.clients.ClientCount())
	}
	return health
}

func (hs *HealthService) datasetStatus(ctx context.Context) map[string]interface{} {
	if hs.dashboard == nil {
		return map[string]interface{}{"state": "unknown"}
	}
	summary := hs.dashboard.Summary(ctx)
	return map[string]interface{}{
		"state":          summary.State,
		"revision":       summary.Revision,
		"source":         summary.Source,
		"total_count":    summary.TotalCount,
		"filtered_count": summary.FilteredCount,
	}
}
