package windows

import "errors"

// Common errors returned by the windows package.
var (
	// ErrAlreadyRegistered is returned when a window identity is already in use.
	ErrAlreadyRegistered = errors.New("window identity already registered")

	// ErrNilDeliver is returned when Register is called without a delivery capability.
	ErrNilDeliver = errors.New("delivery capability must not be nil")
)
