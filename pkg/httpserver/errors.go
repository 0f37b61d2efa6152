package httpserver

import "errors"

var (
	// ErrStart wraps any failure to bring the server up, including a second
	// Run call on the same Server.
	ErrStart = errors.New("httpserver: failed to start")
	// ErrShutdown wraps failures to stop the server within the shutdown
	// timeout.
	ErrShutdown = errors.New("httpserver: graceful shutdown failed")
)
