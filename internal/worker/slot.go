package worker

import (
	"context"
	"sync"
)

// Slot holds at most one active task for a logical file. Starting a new task
// cancels the previous one and waits for it to finish first.
type Slot struct {
	mu      sync.Mutex
	worker  *Worker
	current *Task
}

func NewSlot(w *Worker) *Slot {
	return &Slot{worker: w}
}

// Start replaces the active task with a new one serving req.
func (s *Slot) Start(ctx context.Context, req Request) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Cancel()
		<-s.current.Done()
		s.worker.logger.Debug("replaced in-flight task", "request_id", s.current.ID())
	}
	s.current = s.worker.Start(ctx, req)
	return s.current
}

// Current returns the most recently started task, or nil.
func (s *Slot) Current() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Cancel terminates the active task, if any, and waits for it.
func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	s.current.Cancel()
	<-s.current.Done()
}
