// Package detect defines the contract for per-frame player, ball, and field
// detection.
//
// Implementations stand in for an external computer-vision model. They must
// be pure with respect to shared state so that callers may parallelize
// per-frame calls if they choose to.
package detect

import (
	"context"

	"github.com/blazevision/engine/internal/domain/model"
)

// Request identifies one frame to analyze.
type Request struct {
	// Index is the zero-based frame position in the sampled sequence.
	Index int

	// Timestamp is the frame's position in the video, in seconds.
	Timestamp float64

	// Config is the submitting job's analysis configuration.
	Config model.AnalysisConfig
}

// Detector turns a frame request into detections. Players are returned only
// when the config tracks players, the ball only when it tracks the ball; the
// field is always detected since summarization depends on sport context.
//
// A missing ball is not an error: occlusion simply yields a nil Ball.
// Confidence values are in [0,1].
type Detector interface {
	Detect(ctx context.Context, req Request) (model.FrameRecord, error)
}

// Factory selects a detector for a job at submission time.
type Factory interface {
	// ForJob returns the detector used for all frames of one job.
	ForJob(videoRef string, cfg model.AnalysisConfig) Detector
}
