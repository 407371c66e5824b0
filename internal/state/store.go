package state

import (
	"context"
	"sync"

	"github.com/scan-io-git/sariflens/internal/sarif"
	"github.com/scan-io-git/sariflens/internal/worker"
)

// Status describes the loading lifecycle of the current file.
type Status struct {
	FileName  string `json:"fileName,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Loading   bool   `json:"loading"`
	Progress  int    `json:"progress"`
	Stage     string `json:"stage,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Snapshot is a consistent copy of the store contents.
type Snapshot struct {
	Result     *sarif.Result     `json:"-"`
	Filters    sarif.FilterState `json:"filters"`
	SelectedID string            `json:"selectedId,omitempty"`
	Status     Status            `json:"status"`
}

// Store is the caller-owned container for the last successful parse and the
// view state built on top of it. A Store is safe for concurrent use; the
// parse result it holds is never modified, only replaced.
type Store struct {
	mu       sync.RWMutex
	result   *sarif.Result
	filters  sarif.FilterState
	selected string
	status   Status
}

func NewStore() *Store {
	return &Store{filters: sarif.DefaultFilterState()}
}

// Begin marks the parse of fileName served by requestID as in flight. Only
// that request's outcome is recorded by Track from now on.
func (s *Store) Begin(fileName, requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = Status{FileName: fileName, RequestID: requestID, Loading: true}
}

// SetProgress records a checkpoint. Values lower than the current one are
// ignored so the reported progress never goes backwards.
func (s *Store) SetProgress(percent int, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setProgress(percent, stage)
}

// Apply replaces the current result. The selection is kept only if the
// selected finding exists in the new result.
func (s *Store) Apply(result *sarif.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(result)
}

// Fail ends the in-flight parse with err. The previous result stays available.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail(err)
}

// Track follows task until its terminal message and records the outcome.
// onProgress, if not nil, also receives every checkpoint. Progress and
// outcome of a task other than the one passed to the latest Begin are not
// recorded; they are still returned to the caller.
func (s *Store) Track(ctx context.Context, task *worker.Task, onProgress func(worker.ProgressPayload)) (*sarif.Result, error) {
	id := task.ID()
	result, err := task.Wait(ctx, func(p worker.ProgressPayload) {
		s.forRequest(id, func() { s.setProgress(p.Progress, p.Stage) })
		if onProgress != nil {
			onProgress(p)
		}
	})
	if err != nil {
		s.forRequest(id, func() { s.fail(err) })
		return nil, err
	}
	s.forRequest(id, func() { s.apply(result) })
	return result, nil
}

// forRequest runs fn under the write lock if id is the request in flight.
func (s *Store) forRequest(id string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.RequestID != id {
		return
	}
	fn()
}

func (s *Store) setProgress(percent int, stage string) {
	if !s.status.Loading || percent < s.status.Progress {
		return
	}
	s.status.Progress = percent
	s.status.Stage = stage
}

func (s *Store) apply(result *sarif.Result) {
	s.result = result
	s.status.Loading = false
	s.status.Progress = 100
	s.status.Stage = ""
	s.status.Error = ""
	if s.selected != "" {
		if _, ok := result.FindingByID(s.selected); !ok {
			s.selected = ""
		}
	}
}

func (s *Store) fail(err error) {
	s.status.Loading = false
	s.status.Stage = ""
	s.status.Error = err.Error()
}

func (s *Store) Result() *sarif.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

func (s *Store) Filters() sarif.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// UpdateFilters applies a partial filter update.
func (s *Store) UpdateFilters(patch sarif.FilterPatch) sarif.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = s.filters.Merge(patch)
	return s.filters
}

// ResetFilters restores the default filter state.
func (s *Store) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = sarif.DefaultFilterState()
}

// Filtered returns the findings visible under the current filters.
func (s *Store) Filtered() []*sarif.Finding {
	s.mu.RLock()
	result, filters := s.result, s.filters
	s.mu.RUnlock()

	if result == nil {
		return []*sarif.Finding{}
	}
	return sarif.Filter(result.Findings, filters)
}

// Select marks the finding with id as selected. An empty id clears the
// selection. It reports false when no such finding exists.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.selected = ""
		return true
	}
	if s.result == nil {
		return false
	}
	if _, ok := s.result.FindingByID(id); !ok {
		return false
	}
	s.selected = id
	return true
}

func (s *Store) Selected() (*sarif.Finding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil || s.selected == "" {
		return nil, false
	}
	return s.result.FindingByID(s.selected)
}

// Clear drops the result, the selection, the status and the filters.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = nil
	s.selected = ""
	s.status = Status{}
	s.filters = sarif.DefaultFilterState()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Result:     s.result,
		Filters:    s.filters,
		SelectedID: s.selected,
		Status:     s.status,
	}
}
