package scheduler

import (
	"github.com/blazevision/engine/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithPendingSize sets the capacity of the pending list.
func WithPendingSize(size int) Option {
	return func(p *Pool) {
		if size > 0 {
			p.pendingSize = size
		}
	}
}

// WithTransitionHook sets the observer invoked after every lifecycle
// transition the pool performs.
func WithTransitionHook(hook TransitionHook) Option {
	return func(p *Pool) {
		if hook != nil {
			p.hook = hook
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
