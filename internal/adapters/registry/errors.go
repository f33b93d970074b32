package registry

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrJobNotFound  = errors.New("job not found")
	ErrDuplicateJob = errors.New("duplicate job id")
)
