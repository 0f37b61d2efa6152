package config

import "errors"

var (
	// ErrParsingConfig wraps env tag parsing failures, including missing
	// required variables.
	ErrParsingConfig = errors.New("config: failed to parse environment")

	// ErrConfigNotLoaded is returned when a cached config vanished between
	// parse and read; it indicates a misuse of ResetCache under load.
	ErrConfigNotLoaded = errors.New("config: not loaded")

	// ErrNilPointer is returned when Load is handed a nil destination.
	ErrNilPointer = errors.New("config: nil destination")

	// ErrFailedToLoadEnvFile wraps unreadable .env files.
	ErrFailedToLoadEnvFile = errors.New("config: failed to load env file")
)
