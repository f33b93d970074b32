// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file/env.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the metrics/health HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// MaxConcurrentJobs caps simultaneously processing jobs.
	MaxConcurrentJobs int `koanf:"max_concurrent_jobs"`

	// PendingSize bounds the scheduler's pending list.
	PendingSize int `koanf:"pending_size"`

	// RetentionMinutes is how long terminal jobs are kept before the sweep
	// removes them.
	RetentionMinutes int `koanf:"retention_minutes"`

	// SweepIntervalSeconds is how often the retention sweep runs.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`

	// JobTimeoutSeconds bounds a single job's wall-clock processing time.
	// A job exceeding it is cancelled, not failed. Zero keeps the per-job
	// config default.
	JobTimeoutSeconds int `koanf:"job_timeout_seconds"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9090",
		MaxConcurrentJobs:    2,
		PendingSize:          1024,
		RetentionMinutes:     60,
		SweepIntervalSeconds: 300,
		JobTimeoutSeconds:    0,
	}
}
