// Package scheduler is the bounded-concurrency admission controller for
// analysis jobs.
//
// A fixed pool of workers consumes a FIFO pending list; at most pool-size
// jobs are processing at any instant, and jobs start in submission order.
// The scheduler manages concurrency and lifecycle transitions only; all
// domain work is delegated to the Runner.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blazevision/engine/internal/domain/model"
	"github.com/blazevision/engine/pkg/logger"
	"github.com/blazevision/engine/pkg/metrics"
)

// Default scheduler configuration constants.
const (
	defaultSlots       = 2
	defaultPendingSize = 1024
	stopTimeout        = 30 * time.Second
)

// Runner executes the domain work for one admitted job. It returns the
// completed result, or an error: context errors mean the job was cancelled
// or timed out, a model.JobError carries a classified failure, and anything
// else is treated as internal.
type Runner interface {
	Run(ctx context.Context, job *model.Job) (*model.AnalysisResult, error)
}

// TransitionHook observes lifecycle transitions performed by the pool.
type TransitionHook func(snap model.JobSnapshot)

// Pool admits, runs, and retires jobs with a hard concurrency cap.
type Pool struct {
	slots       int
	pendingSize int
	runner      Runner
	hook        TransitionHook
	logger      logger.Logger

	pending chan *model.Job
	wg      sync.WaitGroup

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	closed  bool
	started bool
}

// New creates a pool with the given concurrency cap.
func New(slots int, runner Runner, opts ...Option) *Pool {
	if slots < 1 {
		slots = defaultSlots
	}
	p := &Pool{
		slots:       slots,
		pendingSize: defaultPendingSize,
		runner:      runner,
		hook:        func(model.JobSnapshot) {},
		logger:      logger.Get().Named("scheduler"),
		cancels:     make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.pending = make(chan *model.Job, p.pendingSize)
	return p
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	metrics.UpdateWorkerCount(p.slots)
	for i := 0; i < p.slots; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Submit appends a queued job to the pending list. Admission happens as soon
// as a worker slot frees up, strictly in submission order.
func (p *Pool) Submit(job *model.Job) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: job %s", ErrShuttingDown, job.ID())
	}

	select {
	case p.pending <- job:
		metrics.UpdateQueueDepth(len(p.pending))
		metrics.UpdateJobsQueued(len(p.pending))
		return nil
	default:
		metrics.RecordErrorByComponent("scheduler", "pending_full")
		return fmt.Errorf("%w: job %s", ErrPendingFull, job.ID())
	}
}

// Cancel requests cancellation of a processing job. Returns true if the job
// was in flight and its context was cancelled; queued jobs are the caller's
// responsibility (transition them before the pool admits them).
func (p *Pool) Cancel(jobID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	cancel, ok := p.cancels[jobID]
	if ok {
		cancel()
	}
	return ok
}

// Stop closes intake, asks in-flight jobs to stop at their next frame
// boundary, and waits for the workers to drain.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.pending)
	for _, cancel := range p.cancels {
		cancel()
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		p.logger.Warn(context.Background(), "scheduler stop timed out", logger.Duration("timeout", stopTimeout))
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for job := range p.pending {
		metrics.UpdateQueueDepth(len(p.pending))
		metrics.UpdateJobsQueued(len(p.pending))

		// A job cancelled while queued reaches the worker already
		// terminal; it holds no slot and is simply skipped.
		if job.Status() != model.StatusQueued {
			continue
		}

		// Jobs drained from the pending list after Stop are retired
		// instead of run, so shutdown cannot stall on a full backlog.
		if p.isClosed() {
			p.retire(ctx, job, model.StatusCancelled, nil, nil)
			metrics.RecordJobCancelled()
			continue
		}
		p.runJob(ctx, job)

		if ctx.Err() != nil {
			return
		}
	}
}

// runJob owns the job for its whole processing lifetime: the transition to
// processing, delegation to the runner, and the terminal transition.
func (p *Pool) runJob(ctx context.Context, job *model.Job) {
	cfg := job.Config()
	var jobCtx context.Context
	var cancel context.CancelFunc
	if cfg.MaxDuration > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, cfg.MaxDuration)
	} else {
		jobCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	p.mu.Lock()
	p.cancels[job.ID()] = cancel
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.cancels, job.ID())
		p.mu.Unlock()
	}()

	if err := job.Transition(model.StatusProcessing, nil, nil); err != nil {
		p.logger.Error(ctx, "cannot admit job", logger.String("jobID", job.ID()), logger.Error(err))
		return
	}
	metrics.UpdateJobsProcessing(p.activeCount())
	p.hook(job.Snapshot())

	start := time.Now()
	result, runErr := p.invoke(jobCtx, job)
	elapsed := time.Since(start)

	switch {
	case runErr == nil:
		p.retire(ctx, job, model.StatusCompleted, result, nil)
		metrics.RecordJobCompleted()
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		// Timeouts are cancellations, not failures: no detector fault
		// occurred. Partial frames are discarded by the transition.
		p.retire(ctx, job, model.StatusCancelled, nil, nil)
		metrics.RecordJobCancelled()
	default:
		info, ok := model.ErrorInfoFrom(runErr)
		if !ok {
			info = model.ErrorInfo{Kind: model.ErrKindInternal, Message: runErr.Error()}
		}
		p.retire(ctx, job, model.StatusFailed, nil, &info)
		metrics.RecordJobFailed()
		metrics.RecordErrorByComponent("scheduler", string(info.Kind))
		p.logger.Error(ctx, "job failed",
			logger.String("jobID", job.ID()),
			logger.String("kind", string(info.Kind)),
			logger.Error(runErr),
		)
	}
	metrics.RecordJobDuration(float64(elapsed.Milliseconds()))
	metrics.UpdateJobsProcessing(p.activeCount())
}

// invoke runs the domain work with a panic barrier so that one job's bug can
// never take down the worker pool.
func (p *Pool) invoke(ctx context.Context, job *model.Job) (result *model.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = model.NewJobError(model.ErrKindInternal, fmt.Sprintf("panic in pipeline: %v", r))
		}
	}()
	return p.runner.Run(ctx, job)
}

func (p *Pool) retire(ctx context.Context, job *model.Job, status model.JobStatus, result *model.AnalysisResult, info *model.ErrorInfo) {
	if err := job.Transition(status, result, info); err != nil {
		p.logger.Error(ctx, "cannot retire job", logger.String("jobID", job.ID()), logger.Error(err))
		return
	}
	p.hook(job.Snapshot())
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pool) activeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cancels)
}
