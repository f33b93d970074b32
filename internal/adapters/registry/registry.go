// Package registry is the engine's in-memory job store.
//
// It owns id lookup and the retention sweep. External readers only ever see
// snapshots; live *model.Job handles stay inside the engine and scheduler.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/blazevision/engine/internal/domain/model"
	"github.com/blazevision/engine/pkg/metrics"
)

// Store holds all known jobs keyed by id.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// New creates an empty store.
func New() *Store {
	return &Store{
		jobs: make(map[string]*model.Job),
	}
}

// Put registers a new job. Ids are uuid-generated so a collision is a
// programming error and rejected.
func (s *Store) Put(ctx context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.ID())
	}
	s.jobs[job.ID()] = job
	return nil
}

// Get returns the live job handle. Engine-internal use only.
func (s *Store) Get(ctx context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

// Snapshot returns a read-only copy of one job's state.
func (s *Store) Snapshot(ctx context.Context, id string) (model.JobSnapshot, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return model.JobSnapshot{}, err
	}
	return job.Snapshot(), nil
}

// List returns snapshots of all jobs, most recently created first.
func (s *Store) List(ctx context.Context) []model.JobSnapshot {
	s.mu.RLock()
	snaps := make([]model.JobSnapshot, 0, len(s.jobs))
	for _, job := range s.jobs {
		snaps = append(snaps, job.Snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].ID > snaps[j].ID
		}
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
	return snaps
}

// Delete removes a job regardless of state and reports whether it existed.
// Used to back out a submission the scheduler refused; routine removal goes
// through Sweep.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return false
	}
	delete(s.jobs, id)
	return true
}

// Count returns the number of stored jobs.
func (s *Store) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Sweep removes terminal jobs created more than maxAge ago and returns how
// many were removed. Processing and queued jobs are never removed, whatever
// their age.
func (s *Store) Sweep(ctx context.Context, maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if !job.Status().Terminal() {
			continue
		}
		if job.CreatedAt().Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.RecordJobsSwept(removed)
	}
	return removed
}
