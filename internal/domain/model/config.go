// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// Sport identifies the rule set used for detection and summarization.
type Sport string

// Supported sports.
const (
	SportBaseball   Sport = "baseball"
	SportFootball   Sport = "football"
	SportBasketball Sport = "basketball"
	SportOther      Sport = "other"
)

// Valid reports whether the sport is a recognized enum value.
func (s Sport) Valid() bool {
	switch s {
	case SportBaseball, SportFootball, SportBasketball, SportOther:
		return true
	}
	return false
}

// Frame-rate bounds accepted at submission.
const (
	MinFrameRate = 30
	MaxFrameRate = 240
)

// Default analysis configuration constants.
const (
	DefaultFrameRate        = 120
	DefaultMaxPlayers       = 22
	DefaultFailureThreshold = 0.4
	DefaultMaxDuration      = 10 * time.Minute
)

// AnalysisConfig is the immutable per-job input supplied at submission.
type AnalysisConfig struct {
	Sport        Sport `json:"sport"`
	TrackPlayers bool  `json:"track_players"`
	TrackBall    bool  `json:"track_ball"`

	// FrameRate caps the sampling rate in frames per second. The pipeline
	// samples at min(native fps, FrameRate).
	FrameRate int `json:"frame_rate"`

	// MaxWidth and MaxHeight cap the resolution reported on metrics.
	MaxWidth  int `json:"max_width"`
	MaxHeight int `json:"max_height"`

	// MaxPlayers bounds how many player detections a frame may carry.
	MaxPlayers int `json:"max_players"`

	// FailureThreshold is the fraction of frames allowed to fail detection
	// before the whole job is considered failed.
	FailureThreshold float64 `json:"failure_threshold"`

	// MaxDuration bounds wall-clock processing time for the job. A job
	// exceeding it is cancelled, not failed.
	MaxDuration time.Duration `json:"max_duration"`
}

// Normalized returns a copy with zero-valued tunables replaced by defaults.
func (c AnalysisConfig) Normalized() AnalysisConfig {
	if c.FrameRate == 0 {
		c.FrameRate = DefaultFrameRate
	}
	if c.MaxPlayers == 0 {
		c.MaxPlayers = DefaultMaxPlayers
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.MaxDuration == 0 {
		c.MaxDuration = DefaultMaxDuration
	}
	return c
}

// Validate checks the config for contradictions. It is called synchronously
// at submission so that invalid configs never produce a job.
func (c AnalysisConfig) Validate() error {
	if !c.Sport.Valid() {
		return fmt.Errorf("%w: unsupported sport %q", ErrInvalidConfig, string(c.Sport))
	}
	if c.FrameRate != 0 && (c.FrameRate < MinFrameRate || c.FrameRate > MaxFrameRate) {
		return fmt.Errorf("%w: frame rate %d outside [%d,%d]", ErrInvalidConfig, c.FrameRate, MinFrameRate, MaxFrameRate)
	}
	if c.FailureThreshold < 0 || c.FailureThreshold > 1 {
		return fmt.Errorf("%w: failure threshold %.2f outside [0,1]", ErrInvalidConfig, c.FailureThreshold)
	}
	if c.MaxPlayers < 0 {
		return fmt.Errorf("%w: negative max players", ErrInvalidConfig)
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("%w: negative max duration", ErrInvalidConfig)
	}
	return nil
}
