package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidCoalesceWindow is returned when the coalesce window is <= 0.
	ErrInvalidCoalesceWindow = errors.New("invalid coalesce window: must be > 0")

	// ErrInvalidEventBuffer is returned when the event buffer size is <= 0.
	ErrInvalidEventBuffer = errors.New("invalid event buffer: must be > 0")

	// ErrNoSocketPath is returned when no server socket path is specified.
	ErrNoSocketPath = errors.New("no server socket path specified")

	// ErrInvalidShutdownTimeout is returned when the shutdown timeout is <= 0.
	ErrInvalidShutdownTimeout = errors.New("invalid shutdown timeout: must be > 0")

	// ErrNoStateDBPath is returned when no state database path is specified.
	ErrNoStateDBPath = errors.New("no state database path specified")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
