package model

import "errors"

// Buffer errors
var (
	// ErrUnknownRun indicates that a run is not registered with the buffer.
	ErrUnknownRun = errors.New("run not registered")
)
