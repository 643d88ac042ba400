package scheduler

import (
	"sync"
)

// Handle is an active timer registration for one endpoint
type Handle interface {
	Stop()
}

// Registry keeps at most one active handle per endpoint id. All mutations
// are serialized.
type Registry struct {
	mu      sync.Mutex
	handles map[string]Handle
	closed  bool
}

func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]Handle),
	}
}

// Install stores the handle for the id, stopping the previous one first.
// Once the registry is closed the handle is stopped immediately and false is returned.
func (r *Registry) Install(id string, handle Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		handle.Stop()
		return false
	}
	if previous, ok := r.handles[id]; ok {
		previous.Stop()
	}
	r.handles[id] = handle
	return true
}

// Remove stops and forgets the handle of the id, if any
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle, ok := r.handles[id]
	if !ok {
		return false
	}
	handle.Stop()
	delete(r.handles, id)
	return true
}

// Clear stops every handle and returns how many were stopped
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := len(r.handles)
	for id, handle := range r.handles {
		handle.Stop()
		delete(r.handles, id)
	}
	return count
}

// Close clears the registry and rejects every later Install
func (r *Registry) Close() int {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.Clear()
}

func (r *Registry) Get(id string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle, ok := r.handles[id]
	return handle, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
