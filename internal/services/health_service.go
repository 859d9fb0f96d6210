package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/xgarcia1/FinalProject/internal/infrastructure"
	"github.com/xgarcia1/FinalProject/pkg/contracts"
)

// SessionCounter reports open interactive sessions
type SessionCounter interface {
	ActiveSessions() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	gitCommit string
	sessions  SessionCounter
	monitor   *infrastructure.RuntimeMonitor
	startTime time.Time
	logger    *slog.Logger
}

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

// BuildInfo identifies the running binary
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// NewHealthService creates a health service. sessions and monitor may be nil.
func NewHealthService(build BuildInfo, sessions SessionCounter, monitor *infrastructure.RuntimeMonitor, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "health_service"))

	logger.Info("HealthService initialized",
		slog.String("version", build.Version),
		slog.String("build_time", build.BuildTime),
		slog.String("git_commit", build.GitCommit))

	return &HealthService{
		version:   build.Version,
		buildTime: build.BuildTime,
		gitCommit: build.GitCommit,
		sessions:  sessions,
		monitor:   monitor,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"sessions": hs.checkSessionHealth(),
		},
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"charts":   hs.checkChartHealth(),
			"sessions": hs.checkSessionHealth(),
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "ReadinessCheck: not ready", slog.String("message", sh.Message))
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	rt := map[string]interface{}{
		"uptime":     time.Since(hs.startTime).Seconds(),
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
	}
	if hs.monitor != nil {
		stats := hs.monitor.Stats()
		rt["heap_alloc_bytes"] = stats.HeapAlloc
		rt["gc_count"] = stats.GCCount
		rt["cpu_count"] = stats.CPUCount
	}

	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   rt,
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"api_version":  contracts.APIVersion,
		"data_format":  contracts.DataFormatVersion,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.gitCommit != "" {
		result["git_commit"] = hs.gitCommit
	}
	return result
}

// checkChartHealth confirms the chart renderer can load its font
func (hs *HealthService) checkChartHealth() ServiceHealth {
	if err := rendererReady(); err != nil {
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}
	return ServiceHealth{Status: "ready", Message: "Chart renderer is healthy"}
}

func (hs *HealthService) checkSessionHealth() ServiceHealth {
	if hs.sessions == nil {
		return ServiceHealth{Status: "ready", Message: "Sessions not tracked"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: pluralize(hs.sessions.ActiveSessions(), "active session"),
		Uptime:  time.Since(hs.startTime).String(),
	}
}
