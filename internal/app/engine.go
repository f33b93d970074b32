// Package app provides the engine facade: the public entry point for
// submitting, querying, cancelling, and garbage-collecting analysis jobs.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blazevision/engine/internal/adapters/registry"
	"github.com/blazevision/engine/internal/adapters/scheduler"
	"github.com/blazevision/engine/internal/adapters/video"
	"github.com/blazevision/engine/internal/domain/detect"
	"github.com/blazevision/engine/internal/domain/model"
	"github.com/blazevision/engine/pkg/logger"
	"github.com/blazevision/engine/pkg/metrics"
)

// Default engine configuration constants.
const (
	defaultMaxConcurrentJobs = 2
	defaultRetentionAge      = time.Hour
	defaultSweepInterval     = 5 * time.Minute
)

// Engine is the job-processing facade.
type Engine struct {
	mu sync.RWMutex

	// Core components
	jobs     *registry.Store
	pool     *scheduler.Pool
	source   video.Source
	detector detect.Factory

	// Configuration
	maxConcurrentJobs int
	pendingSize       int
	retentionAge      time.Duration
	sweepInterval     time.Duration
	jobTimeout        time.Duration

	// State
	started bool
	stopCh  chan struct{}

	// Event subscribers
	listeners []func(Event)

	// Logging
	logger logger.Logger
}

// New constructs an Engine with default configuration.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxConcurrentJobs: defaultMaxConcurrentJobs,
		retentionAge:      defaultRetentionAge,
		sweepInterval:     defaultSweepInterval,
		source:            video.NewSyntheticSource(),
		detector:          detect.SyntheticFactory{},
		stopCh:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start initializes the registry and scheduler and begins the retention
// sweep loop.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("engine")
	}

	e.jobs = registry.New()
	executor := newExecutor(e.source, e.detector, e.emit, e.logger)
	poolOpts := []scheduler.Option{
		scheduler.WithTransitionHook(e.onTransition),
	}
	if e.pendingSize > 0 {
		poolOpts = append(poolOpts, scheduler.WithPendingSize(e.pendingSize))
	}
	e.pool = scheduler.New(e.maxConcurrentJobs, executor, poolOpts...)
	e.pool.Start(ctx)

	go e.sweepLoop(ctx)

	e.started = true
	e.logger.Info(ctx, "analysis engine started",
		logger.Int("maxConcurrentJobs", e.maxConcurrentJobs),
	)
	return nil
}

// Stop shuts the engine down, letting in-flight jobs reach their next frame
// boundary.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return
	}
	e.pool.Stop()
	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
	e.started = false
	e.logger.Info(context.Background(), "analysis engine stopped")
}

// Submit validates the config, creates a queued job, and hands it to the
// scheduler. It returns the job id without waiting for admission.
func (e *Engine) Submit(ctx context.Context, videoRef string, cfg model.AnalysisConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		metrics.RecordErrorByComponent("engine", string(model.ErrKindConfig))
		return "", err
	}
	if videoRef == "" {
		return "", fmt.Errorf("%w: empty video reference", model.ErrInvalidConfig)
	}

	norm := cfg
	if norm.MaxDuration == 0 && e.jobTimeout > 0 {
		norm.MaxDuration = e.jobTimeout
	}
	job := model.NewJob(videoRef, norm.Normalized())
	if err := e.jobs.Put(ctx, job); err != nil {
		return "", err
	}
	if err := e.pool.Submit(job); err != nil {
		// Back the job out so a refused submission leaves no queued orphan
		// behind in the store.
		e.jobs.Delete(ctx, job.ID())
		return "", err
	}

	metrics.RecordJobSubmitted()
	e.logger.Info(ctx, "job submitted",
		logger.String("jobID", job.ID()),
		logger.String("sport", string(cfg.Sport)),
	)
	return job.ID(), nil
}

// GetStatus returns a read-only snapshot of the job. The snapshot never
// aliases worker-owned state, so repeated calls without intervening
// transitions return identical values.
func (e *Engine) GetStatus(ctx context.Context, jobID string) (model.JobSnapshot, error) {
	return e.jobs.Snapshot(ctx, jobID)
}

// ListJobs returns snapshots of all known jobs, most recent first.
func (e *Engine) ListJobs(ctx context.Context) []model.JobSnapshot {
	return e.jobs.List(ctx)
}

// Cancel requests cancellation. Returns true if the job was queued or
// processing; terminal and unknown jobs report false.
func (e *Engine) Cancel(ctx context.Context, jobID string) bool {
	job, err := e.jobs.Get(ctx, jobID)
	if err != nil {
		return false
	}

	// A queued job can be retired directly; the scheduler skips terminal
	// jobs when they surface from the pending list.
	if job.Status() == model.StatusQueued {
		if err := job.Transition(model.StatusCancelled, nil, nil); err == nil {
			metrics.RecordJobCancelled()
			e.onTransition(job.Snapshot())
			// A worker may have admitted the job between the status read
			// and the transition; interrupt it so the slot frees now.
			e.pool.Cancel(jobID)
			return true
		}
		// Lost the race with admission; fall through to in-flight cancel.
	}

	if e.pool.Cancel(jobID) {
		e.logger.Info(ctx, "cancellation requested", logger.String("jobID", jobID))
		return true
	}
	return false
}

// Cleanup removes terminal jobs older than maxAge and returns how many were
// removed. Processing jobs are never removed.
func (e *Engine) Cleanup(ctx context.Context, maxAge time.Duration) int {
	removed := e.jobs.Sweep(ctx, maxAge)
	if removed > 0 {
		e.logger.Info(ctx, "retention sweep removed jobs",
			logger.Int("removed", removed),
			logger.Duration("maxAge", maxAge),
		)
	}
	return removed
}

// sweepLoop runs the retention sweep on the configured interval.
func (e *Engine) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.Cleanup(ctx, e.retentionAge)
		}
	}
}

// onTransition translates scheduler lifecycle transitions into events.
func (e *Engine) onTransition(snap model.JobSnapshot) {
	switch snap.Status {
	case model.StatusProcessing:
		e.emit(Event{JobID: snap.ID, Type: EventStarted, Status: snap.Status, Timestamp: time.Now()})
	case model.StatusCompleted:
		e.emit(Event{JobID: snap.ID, Type: EventCompleted, Status: snap.Status, Progress: snap.Progress, Timestamp: time.Now()})
	case model.StatusFailed:
		e.emit(Event{JobID: snap.ID, Type: EventFailed, Status: snap.Status, Timestamp: time.Now()})
	case model.StatusCancelled:
		e.emit(Event{JobID: snap.ID, Type: EventCancelled, Status: snap.Status, Timestamp: time.Now()})
	case model.StatusQueued:
		// Jobs are born queued; no transition lands here.
	}
}
