package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures a Server during construction.
type Option func(*config)

// WithAddr sets the listen address, e.g. ":8080".
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: addr cannot be empty")
	}
	return func(c *config) { c.addr = addr }
}

// WithReadTimeout bounds how long reading a full request may take.
func WithReadTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: read timeout must be positive")
	}
	return func(c *config) { c.readTimeout = d }
}

// WithWriteTimeout bounds how long writing a response may take.
func WithWriteTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: write timeout must be positive")
	}
	return func(c *config) { c.writeTimeout = d }
}

// WithIdleTimeout bounds how long a keep-alive connection may sit idle.
func WithIdleTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: idle timeout must be positive")
	}
	return func(c *config) { c.idleTimeout = d }
}

// WithShutdownTimeout bounds how long Shutdown waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: shutdown timeout must be positive")
	}
	return func(c *config) { c.shutdownTimeout = d }
}

// WithServer runs the given http.Server instead of a fresh one. Its Handler
// is always replaced by the handler passed to Run; Addr and timeouts are
// filled in only where the server leaves them zero.
func WithServer(srv *http.Server) Option {
	if srv == nil {
		panic("httpserver: server cannot be nil")
	}
	return func(c *config) { c.server = srv }
}

// WithLogger sets the logger handed to start and stop hooks.
// A nil logger falls back to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithStartHook registers a callback invoked just before the server starts
// listening. Hooks run in registration order.
func WithStartHook(h func(*slog.Logger)) Option {
	if h == nil {
		panic("httpserver: start hook cannot be nil")
	}
	return func(c *config) { c.startHooks = append(c.startHooks, h) }
}

// WithStopHook registers a callback invoked after the server has drained.
// Hooks run in registration order.
func WithStopHook(h func(*slog.Logger)) Option {
	if h == nil {
		panic("httpserver: stop hook cannot be nil")
	}
	return func(c *config) { c.stopHooks = append(c.stopHooks, h) }
}
