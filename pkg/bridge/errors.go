package bridge

import "errors"

// Common errors returned by the bridge.
var (
	// ErrBridgeShutdown is returned when HandleSubscribe is called after Shutdown.
	ErrBridgeShutdown = errors.New("bridge is shut down")
)
