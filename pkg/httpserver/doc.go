// Package httpserver wraps net/http with graceful shutdown, env-driven
// timeouts and probe handlers. Run blocks until the context is cancelled or
// an interrupt/TERM signal arrives, then drains within the shutdown timeout.
package httpserver
