package pipeline

import (
	"github.com/blazevision/engine/pkg/logger"
)

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithProgress sets the per-frame progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) {
		if fn != nil {
			r.progress = fn
		}
	}
}

// WithFailureThreshold sets the fraction of frames allowed to fail detection
// before the run aborts.
func WithFailureThreshold(fraction float64) Option {
	return func(r *Runner) {
		if fraction > 0 && fraction <= 1 {
			r.failureThreshold = fraction
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}
