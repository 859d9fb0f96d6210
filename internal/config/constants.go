package config

import "time"

// Application constants
const (
	AppName    = "csvplot"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. CSVPLOT_SERVER_PORT.
	EnvPrefix = "CSVPLOT"

	// ConfigFileEnv points at an explicit YAML config file.
	ConfigFileEnv = "CSVPLOT_CONFIG"
)

// Chart limits
const (
	MaxPieCategories   = 10
	DefaultChartWidth  = 800
	DefaultChartHeight = 600
	DefaultPreviewRows = 20
)

// Upload limits
const (
	DefaultUploadMaxBytes = 10 << 20 // 10 MiB
)

// Network timeouts
const (
	WebSocketWriteWait  = 10 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second
)

// Endpoints
const (
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
	ClientLogEndpoint = "/api/logs"
)

// DefaultUploadExtensions lists the accepted upload file types
var DefaultUploadExtensions = []string{".csv", ".txt", ".xlsx"}
