// Package registry implements the session registry (C10): at most one
// worker per session ID, start/stop/cleanup under a single mutex, and the
// delegated seek/reset/frame-rate operations spec §4.6 requires.
package registry

import (
	"log"
	"sync"
)

// Worker is the subset of *worker.Worker the registry depends on. Declared
// locally (rather than importing internal/worker directly into the field
// type) only so registry's own tests can supply a fake; production callers
// pass a real *worker.Worker, which satisfies this.
type Worker interface {
	Start() error
	Stop()
	IsRunning() bool
}

// Seeker is the seek/reset/frame-rate surface the registry delegates to.
// *worker.Worker implements it for every codec; for codecs whose hooks
// don't support seeking (AAC, TS, MKV) its SeekToFrame/SeekToTime return
// false and its SetFrameRate/ResetToStart do nothing, while the registry's
// Reset and SetFrameRate still report true for any tracked session. A
// missing session, or a worker that doesn't implement Seeker, is a no-op
// that returns false.
type Seeker interface {
	SeekToFrame(frame int) bool
	SeekToTime(seconds float64) bool
	SetFrameRate(fps float64)
	ResetToStart()
}

// Registry tracks one worker per active session ID.
type Registry struct {
	mu      sync.Mutex
	workers map[string]Worker
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{workers: make(map[string]Worker)}
}

// Start installs worker under sessionID, stopping and replacing any
// existing worker for that ID first. If worker.Start() fails, the new
// worker is not installed and false is returned; any previous worker for
// that ID has already been stopped and removed by then.
func (r *Registry) Start(sessionID string, w Worker) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.workers[sessionID]; ok {
		existing.Stop()
		delete(r.workers, sessionID)
	}

	if err := w.Start(); err != nil {
		log.Printf("registry: start session=%s failed: %v", sessionID, err)
		return false
	}
	r.workers[sessionID] = w
	log.Printf("registry: session=%s started, active=%d", sessionID, len(r.workers))
	return true
}

// Stop stops and removes the worker for sessionID, if present.
func (r *Registry) Stop(sessionID string) bool {
	r.mu.Lock()
	w, ok := r.workers[sessionID]
	if ok {
		delete(r.workers, sessionID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	w.Stop()
	log.Printf("registry: session=%s stopped", sessionID)
	return true
}

// StopAll stops and removes every tracked worker.
func (r *Registry) StopAll() {
	r.mu.Lock()
	all := r.workers
	r.workers = make(map[string]Worker)
	r.mu.Unlock()

	for id, w := range all {
		w.Stop()
		log.Printf("registry: session=%s stopped (stop_all)", id)
	}
}

// CleanupFinished removes every entry whose worker has stopped running on
// its own (EOF-disabled single-shot workers, or workers whose session died
// out from under them), returning the count removed.
func (r *Registry) CleanupFinished() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, w := range r.workers {
		if !w.IsRunning() {
			w.Stop()
			delete(r.workers, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("registry: cleanup_finished removed=%d active=%d", removed, len(r.workers))
	}
	return removed
}

// ActiveCount returns the number of tracked sessions.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}

// ActiveIDs returns the session IDs currently tracked.
func (r *Registry) ActiveIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.workers))
	for id := range r.workers {
		ids = append(ids, id)
	}
	return ids
}

// IsActive reports whether sessionID has a tracked worker.
func (r *Registry) IsActive(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.workers[sessionID]
	return ok
}

// SeekToFrame delegates to the session's worker if it supports seeking;
// no-op (returns false) on a missing session or a worker that doesn't
// implement Seeker.
func (r *Registry) SeekToFrame(sessionID string, frame int) bool {
	s, ok := r.seeker(sessionID)
	if !ok {
		return false
	}
	return s.SeekToFrame(frame)
}

// SeekToTime delegates to the session's worker if it supports seeking.
func (r *Registry) SeekToTime(sessionID string, seconds float64) bool {
	s, ok := r.seeker(sessionID)
	if !ok {
		return false
	}
	return s.SeekToTime(seconds)
}

// Reset rewinds the session's worker to the start of its stream.
func (r *Registry) Reset(sessionID string) bool {
	s, ok := r.seeker(sessionID)
	if !ok {
		return false
	}
	s.ResetToStart()
	return true
}

// SetFrameRate overrides the session's worker's frame-rate-derived pacing.
func (r *Registry) SetFrameRate(sessionID string, fps float64) bool {
	s, ok := r.seeker(sessionID)
	if !ok {
		return false
	}
	s.SetFrameRate(fps)
	return true
}

func (r *Registry) seeker(sessionID string) (Seeker, bool) {
	r.mu.Lock()
	w, ok := r.workers[sessionID]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	s, ok := w.(Seeker)
	return s, ok
}
