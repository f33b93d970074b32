package app

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/blazevision/engine/internal/adapters/video"
	"github.com/blazevision/engine/internal/domain/detect"
	"github.com/blazevision/engine/internal/domain/model"
	"github.com/blazevision/engine/internal/domain/pipeline"
	"github.com/blazevision/engine/internal/domain/summary"
	"github.com/blazevision/engine/pkg/logger"
)

// Processing-time estimate constants, matching the submission API's rough
// model: base cost proportional to duration, scaled by the sampling rate
// relative to 60fps.
const (
	estimateBaseMsPerSecond = 400.0
	estimateReferenceFPS    = 60.0
)

// executor runs the domain stages for one job: probe, frame pipeline,
// summary extraction. It implements scheduler.Runner.
type executor struct {
	source   video.Source
	detector detect.Factory
	emit     func(Event)
	logger   logger.Logger
}

func newExecutor(source video.Source, detector detect.Factory, emit func(Event), log logger.Logger) *executor {
	return &executor{
		source:   source,
		detector: detector,
		emit:     emit,
		logger:   log.Named("executor"),
	}
}

// Run executes the full analysis for one job. Errors are returned classified
// as model.JobError except for context errors, which the scheduler maps to
// cancellation.
func (x *executor) Run(ctx context.Context, job *model.Job) (*model.AnalysisResult, error) {
	start := time.Now()
	cfg := job.Config()

	clip, err := x.source.Probe(ctx, job.VideoRef())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, model.NewJobError(model.ErrKindDecode, err.Error())
	}

	total, rate := pipeline.SampleCount(clip.Duration, clip.FPS, cfg.FrameRate)
	job.SetEstimate(estimateMs(clip.Duration, rate))
	x.logger.Debug(ctx, "probed video",
		logger.String("jobID", job.ID()),
		logger.Float64("duration", clip.Duration),
		logger.Float64("sampleRate", rate),
		logger.Int("frames", total),
	)

	det := x.detector.ForJob(job.VideoRef(), cfg)
	runner := pipeline.New(det,
		pipeline.WithFailureThreshold(cfg.FailureThreshold),
		pipeline.WithLogger(x.logger),
		pipeline.WithProgress(func(pct int) {
			job.SetProgress(pct)
			x.emit(Event{
				JobID:     job.ID(),
				Type:      EventProgress,
				Status:    model.StatusProcessing,
				Progress:  pct,
				Timestamp: time.Now(),
			})
		}),
	)

	frames, stats, err := runner.Run(ctx, clip.Duration, clip.FPS, cfg)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case errors.Is(err, pipeline.ErrDetectorFailureRate):
			return nil, model.NewJobError(model.ErrKindDetector, err.Error())
		case errors.Is(err, pipeline.ErrNoFrames):
			return nil, model.NewJobError(model.ErrKindDecode, err.Error())
		default:
			return nil, model.NewJobError(model.ErrKindInternal, err.Error())
		}
	}

	sum := summary.New(cfg.Sport).Extract(frames, cfg)

	width, height := clip.Width, clip.Height
	if cfg.MaxWidth > 0 && width > cfg.MaxWidth {
		width = cfg.MaxWidth
	}
	if cfg.MaxHeight > 0 && height > cfg.MaxHeight {
		height = cfg.MaxHeight
	}

	return &model.AnalysisResult{
		Frames: frames,
		Metrics: model.VideoMetrics{
			FrameCount:   len(frames),
			FPS:          stats.SampleRate,
			Duration:     clip.Duration,
			Width:        width,
			Height:       height,
			QualityScore: summary.Quality(frames),
		},
		Summary:          sum,
		Status:           model.StatusCompleted,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// estimateMs predicts processing time from clip duration and sampling rate.
func estimateMs(duration, rate float64) int64 {
	return int64(math.Round(duration * estimateBaseMsPerSecond * (rate / estimateReferenceFPS)))
}
