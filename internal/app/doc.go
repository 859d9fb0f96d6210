// Package app wires csvplot together and runs it.
//
// Startup order:
//
//	1. Load configuration (defaults, optional YAML file, CSVPLOT_* environment)
//	2. Initialize the process logger and OpenTelemetry
//	3. Create the chart and health services
//	4. Build the router, the session hub and the HTTP server
//	5. Serve until SIGINT or SIGTERM
//
// Shutdown stops accepting requests, waits for in-flight ones up to the
// configured timeout, closes every open session and flushes telemetry.
// Errors are returned to main; the package never calls os.Exit.
package app
