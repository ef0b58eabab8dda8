// Package app wires configuration, logging, telemetry, services and the HTTP router
// into one Application and manages its lifecycle.
//
// Initialization order:
//
//	1. Load configuration (defaults, YAML file, DAPODIK_* environment)
//	2. Initialize the slog logger and OpenTelemetry providers
//	3. Build the report, merge and health services
//	4. Mount handlers behind the middleware chain
//	5. Create the HTTP server
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// the configured shutdown timeout. Errors are returned, never passed to os.Exit.
package app
