package app

import (
	"time"

	"github.com/blazevision/engine/internal/adapters/video"
	"github.com/blazevision/engine/internal/domain/detect"
	"github.com/blazevision/engine/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMaxConcurrentJobs caps the number of simultaneously processing jobs.
func WithMaxConcurrentJobs(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrentJobs = n
		}
	}
}

// WithPendingSize bounds the scheduler's pending list.
func WithPendingSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.pendingSize = size
		}
	}
}

// WithJobTimeout sets the default per-job processing deadline applied when a
// submission does not carry its own.
func WithJobTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.jobTimeout = d
		}
	}
}

// WithRetentionAge sets how long terminal jobs are kept before the sweep
// removes them.
func WithRetentionAge(age time.Duration) Option {
	return func(e *Engine) {
		if age > 0 {
			e.retentionAge = age
		}
	}
}

// WithSweepInterval sets how often the retention sweep runs.
func WithSweepInterval(interval time.Duration) Option {
	return func(e *Engine) {
		if interval > 0 {
			e.sweepInterval = interval
		}
	}
}

// WithVideoSource sets the video-decoding collaborator.
func WithVideoSource(source video.Source) Option {
	return func(e *Engine) {
		if source != nil {
			e.source = source
		}
	}
}

// WithDetectorFactory sets the detector selection strategy.
func WithDetectorFactory(factory detect.Factory) Option {
	return func(e *Engine) {
		if factory != nil {
			e.detector = factory
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
