// Package pipeline drives the detector across every sampled timestamp of a
// job's video, assembling the ordered frame sequence.
//
// Frames are processed sequentially so that timestamp ordering is strict and
// velocity/trajectory derivation can depend on prior-frame state. Progress
// updates and cancellation checks happen only at frame boundaries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/blazevision/engine/internal/domain/detect"
	"github.com/blazevision/engine/internal/domain/model"
	"github.com/blazevision/engine/pkg/logger"
	"github.com/blazevision/engine/pkg/metrics"
)

// Default pipeline constants.
const (
	defaultFailureThreshold = 0.4
	trajectoryWindow        = 10
	percentScale            = 100
)

// ProgressFunc receives the completion percentage after each frame.
type ProgressFunc func(pct int)

// Stats summarizes a pipeline run.
type Stats struct {
	FramesTotal  int
	FramesFailed int
	SampleRate   float64
}

// Runner executes the frame pipeline for one job at a time.
type Runner struct {
	detector         detect.Detector
	progress         ProgressFunc
	failureThreshold float64
	logger           logger.Logger
}

// New creates a pipeline runner for the given detector.
func New(detector detect.Detector, opts ...Option) *Runner {
	r := &Runner{
		detector:         detector,
		progress:         func(int) {},
		failureThreshold: defaultFailureThreshold,
		logger:           logger.Get().Named("pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SampleCount returns how many frames a clip yields at the effective rate.
func SampleCount(duration, fps float64, capFPS int) (int, float64) {
	rate := fps
	if capFPS > 0 && float64(capFPS) < rate {
		rate = float64(capFPS)
	}
	return int(math.Floor(duration * rate)), rate
}

// Run samples the clip and detects every frame in timestamp order.
//
// A single-frame detector failure is retried once, then the frame is recorded
// with empty detections and the run continues. Once the failure fraction
// exceeds the configured threshold the run aborts with an error wrapping
// ErrDetectorFailureRate. Context cancellation or deadline expiry is honored
// at the next frame boundary and surfaces as the context's error.
func (r *Runner) Run(ctx context.Context, duration, fps float64, cfg model.AnalysisConfig) ([]model.FrameRecord, Stats, error) {
	total, rate := SampleCount(duration, fps, cfg.FrameRate)
	if total <= 0 {
		return nil, Stats{}, fmt.Errorf("%w: duration %.2fs at %.2f fps", ErrNoFrames, duration, rate)
	}

	stats := Stats{FramesTotal: total, SampleRate: rate}
	frames := make([]model.FrameRecord, 0, total)
	trk := newTracker()

	for i := 0; i < total; i++ {
		// Frame boundary: the only cancellation checkpoint, so a torn
		// FrameRecord can never be observed.
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		ts := float64(i) / rate
		rec, failed := r.detectFrame(ctx, detect.Request{Index: i, Timestamp: ts, Config: cfg})
		if failed {
			stats.FramesFailed++
			if float64(stats.FramesFailed)/float64(total) > r.failureThreshold {
				return nil, stats, fmt.Errorf("%w: %d of %d frames failed",
					ErrDetectorFailureRate, stats.FramesFailed, total)
			}
		} else {
			trk.enrich(&rec)
		}
		frames = append(frames, rec)

		metrics.RecordFrameProcessed()
		r.progress(int(math.Floor(float64(i+1) / float64(total) * percentScale)))
	}

	return frames, stats, nil
}

// detectFrame calls the detector with a single retry. On double failure it
// returns an empty-detection record; the failure is localized, not fatal.
func (r *Runner) detectFrame(ctx context.Context, req detect.Request) (model.FrameRecord, bool) {
	start := time.Now()
	defer func() {
		metrics.RecordFrameLatency(float64(time.Since(start).Milliseconds()))
	}()

	rec, err := r.detector.Detect(ctx, req)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		metrics.RecordDetectorRetry()
		rec, err = r.detector.Detect(ctx, req)
	}
	if err != nil {
		metrics.RecordDetectorFailure()
		metrics.RecordFrameEmpty()
		metrics.RecordErrorByComponent("pipeline", "detector")
		r.logger.Warn(ctx, "frame detection failed, recording empty frame",
			logger.Int("frame", req.Index),
			logger.Error(err),
		)
		return model.FrameRecord{Timestamp: req.Timestamp}, true
	}
	return rec, false
}

// tracker derives velocities and the ball trajectory from prior-frame state.
type tracker struct {
	playerPos map[int]model.Position
	prevTS    map[int]float64
	ballPath  []model.TrajectoryPoint
	lastBall  *model.TrajectoryPoint
}

func newTracker() *tracker {
	return &tracker{
		playerPos: make(map[int]model.Position),
		prevTS:    make(map[int]float64),
	}
}

// enrich fills in velocity vectors for continuing player tracks and the
// ball's look-back trajectory window.
func (t *tracker) enrich(rec *model.FrameRecord) {
	for i := range rec.Players {
		p := &rec.Players[i]
		if prev, ok := t.playerPos[p.TrackID]; ok {
			dt := rec.Timestamp - t.prevTS[p.TrackID]
			if dt > 0 {
				p.Velocity = velocityBetween(prev, p.Position, dt)
			}
		}
		t.playerPos[p.TrackID] = p.Position
		t.prevTS[p.TrackID] = rec.Timestamp
	}

	if rec.Ball != nil {
		if t.lastBall != nil {
			dt := rec.Timestamp - t.lastBall.Timestamp
			if dt > 0 {
				rec.Ball.Velocity = velocityBetween(t.lastBall.Position, rec.Ball.Position, dt)
			}
		}
		point := model.TrajectoryPoint{Timestamp: rec.Timestamp, Position: rec.Ball.Position}
		t.ballPath = append(t.ballPath, point)
		if len(t.ballPath) > trajectoryWindow {
			t.ballPath = t.ballPath[len(t.ballPath)-trajectoryWindow:]
		}
		rec.Ball.Trajectory = append([]model.TrajectoryPoint(nil), t.ballPath...)
		t.lastBall = &point
	}
}

func velocityBetween(from, to model.Position, dt float64) *model.Velocity {
	vx := (to.X - from.X) / dt
	vy := (to.Y - from.Y) / dt
	return &model.Velocity{VX: vx, VY: vy, Magnitude: math.Hypot(vx, vy)}
}
