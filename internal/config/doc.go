// Package config loads csvplot configuration.
//
// Values are resolved in this order, later sources winning:
//
//  1. Default()
//  2. a YAML file named by CSVPLOT_CONFIG, or config.yaml / configs/config.yaml
//  3. CSVPLOT_* environment variables
//
// Nested sections map to prefixed variables:
//
//	CSVPLOT_SERVER_PORT=8080
//	CSVPLOT_UPLOAD_MAX_BYTES=10485760
//	CSVPLOT_CHART_WIDTH=1024
//	CSVPLOT_LOGGING_LEVEL=debug
//
// The merged configuration is validated before it is returned.
package config
