package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus tracks a job through its lifecycle state machine.
type JobStatus string

// Lifecycle states. The three end states are terminal and immutable.
const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// legalTransitions is the complete transition table. Anything absent here is
// a programming error and rejected loudly.
var legalTransitions = map[JobStatus][]JobStatus{
	StatusQueued:     {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
}

// ErrorKind classifies job failures.
type ErrorKind string

// Error kinds surfaced on failed jobs.
const (
	ErrKindConfig   ErrorKind = "config"
	ErrKindDecode   ErrorKind = "decode"
	ErrKindDetector ErrorKind = "detector"
	ErrKindTimeout  ErrorKind = "timeout"
	ErrKindInternal ErrorKind = "internal"
)

// ErrorInfo is the user-visible failure description on a terminal job.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Job is one submitted video-analysis request. The worker executing a job is
// its sole mutator; every external read goes through Snapshot.
type Job struct {
	mu sync.RWMutex

	id          string
	videoRef    string
	config      AnalysisConfig
	status      JobStatus
	progress    int
	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time
	estimatedMs int64
	result      *AnalysisResult
	errInfo     *ErrorInfo
}

// NewJob creates a queued job for the given video reference and normalized
// config.
func NewJob(videoRef string, cfg AnalysisConfig) *Job {
	return &Job{
		id:        uuid.NewString(),
		videoRef:  videoRef,
		config:    cfg,
		status:    StatusQueued,
		createdAt: time.Now(),
	}
}

// ID returns the job's opaque identifier.
func (j *Job) ID() string { return j.id }

// VideoRef returns the opaque video handle supplied at submission.
func (j *Job) VideoRef() string { return j.videoRef }

// Config returns the immutable analysis configuration.
func (j *Job) Config() AnalysisConfig { return j.config }

// Status returns the current lifecycle state.
func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// SetEstimate records the estimated processing time in milliseconds.
func (j *Job) SetEstimate(ms int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.estimatedMs = ms
}

// SetProgress updates the completion percentage. Progress is clamped to
// [0,100] and never moves backwards; updates on a non-processing job are
// ignored so a late callback cannot disturb a terminal job.
func (j *Job) SetProgress(pct int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusProcessing {
		return
	}
	if pct > 100 {
		pct = 100
	}
	if pct > j.progress {
		j.progress = pct
	}
}

// Transition moves the job to the next lifecycle state, enforcing the
// transition table. Completed jobs receive their result here; failed jobs
// their error info. Partial results never survive a non-completed exit.
func (j *Job) Transition(next JobStatus, result *AnalysisResult, errInfo *ErrorInfo) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	allowed := false
	for _, s := range legalTransitions[j.status] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, j.status, next)
	}

	now := time.Now()
	switch next {
	case StatusProcessing:
		j.startedAt = now
	case StatusCompleted:
		j.completedAt = now
		j.result = result
		j.progress = 100
	case StatusFailed:
		j.completedAt = now
		j.errInfo = errInfo
		j.result = nil
	case StatusCancelled:
		j.completedAt = now
		j.result = nil
	}
	j.status = next
	return nil
}

// JobSnapshot is an immutable copy of a job's observable state. Snapshots are
// what external callers receive; they never alias the worker's mutable state.
type JobSnapshot struct {
	ID          string          `json:"id"`
	VideoRef    string          `json:"video_ref"`
	Config      AnalysisConfig  `json:"config"`
	Status      JobStatus       `json:"status"`
	Progress    int             `json:"progress"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   time.Time       `json:"started_at,omitzero"`
	CompletedAt time.Time       `json:"completed_at,omitzero"`
	EstimatedMs int64           `json:"estimated_ms,omitempty"`
	Result      *AnalysisResult `json:"result,omitempty"`
	Error       *ErrorInfo      `json:"error,omitempty"`
}

// Snapshot returns a consistent copy of the job for external readers.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	snap := JobSnapshot{
		ID:          j.id,
		VideoRef:    j.videoRef,
		Config:      j.config,
		Status:      j.status,
		Progress:    j.progress,
		CreatedAt:   j.createdAt,
		StartedAt:   j.startedAt,
		CompletedAt: j.completedAt,
		EstimatedMs: j.estimatedMs,
	}
	if j.result != nil {
		r := *j.result
		snap.Result = &r
	}
	if j.errInfo != nil {
		e := *j.errInfo
		snap.Error = &e
	}
	return snap
}

// CreatedAt returns the submission time.
func (j *Job) CreatedAt() time.Time { return j.createdAt }
