package scheduler

import "errors"

// Sentinel kinds for scheduler errors.
var (
	ErrShuttingDown = errors.New("scheduler shutting down")
	ErrPendingFull  = errors.New("pending list full")
)
