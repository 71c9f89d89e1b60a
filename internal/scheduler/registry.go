package scheduler

import (
	"context"
	"sync"
)

// Registry tracks the cancellation handle of every in-flight generation call
// so a batch-level cancel can stop them en masse. One handle is registered
// per day at call start and removed at call end; a retry of the same day
// registers a fresh handle, never a reused one.
type Registry struct {
	mu      sync.Mutex
	handles map[int]context.CancelFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[int]context.CancelFunc),
	}
}

// Register records the cancel handle for an in-flight call on the given day,
// replacing any stale handle left for that day.
func (r *Registry) Register(day int, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[day] = cancel
}

// Unregister removes the handle for the given day. Unknown days are no-ops.
func (r *Registry) Unregister(day int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, day)
}

// CancelAll signals every currently registered handle and clears the
// registry. Safe to call repeatedly; repeat calls are no-ops.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for day, cancel := range r.handles {
		cancel()
		delete(r.handles, day)
	}
}

// Len returns the number of currently registered handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
