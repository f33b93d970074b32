package app

import (
	"time"

	"github.com/blazevision/engine/internal/domain/model"
)

// EventType identifies a job lifecycle notification.
type EventType string

// Event types fired on job state transitions.
const (
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// Event is the payload delivered to subscribers. External notifiers relay
// these instead of polling GetStatus.
type Event struct {
	JobID     string          `json:"job_id"`
	Type      EventType       `json:"type"`
	Status    model.JobStatus `json:"status,omitempty"`
	Progress  int             `json:"progress,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Subscribe registers a listener for job lifecycle events. Listeners are
// invoked on their own goroutine and must not assume ordering across jobs.
func (e *Engine) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// emit fans an event out to all subscribers without blocking the worker that
// produced it.
func (e *Engine) emit(ev Event) {
	e.mu.RLock()
	listeners := make([]func(Event), len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.RUnlock()

	for _, fn := range listeners {
		go fn(ev)
	}
}
