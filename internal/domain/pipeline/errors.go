package pipeline

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrNoFrames            = errors.New("video yields no frames")
	ErrDetectorFailureRate = errors.New("detector failure rate exceeded threshold")
)
