// Package observability owns responder metrics and admin HTTP
// instrumentation. Metrics register lazily on first use.
package observability
