// Package middleware holds the HTTP middleware chain: request IDs, structured request logs,
// panic recovery, OpenTelemetry spans and metrics, CORS, security headers, rate limiting,
// request deadlines and upload validation.
package middleware
