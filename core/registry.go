package core

import (
	"fmt"
	"sync"
)

// Registry holds the process-lifetime set of available responders. It is
// read concurrently by many turns and mutated only through explicit
// administrative calls; a mutex with copy-out reads prevents torn reads.
// Registration order is preserved because scheduler fallbacks and degraded
// routing pick "top responders by registry order".
type Registry struct {
	mu         sync.RWMutex
	order      []string
	responders map[string]Responder
}

// NewRegistry constructs an empty responder registry.
func NewRegistry() *Registry {
	return &Registry{responders: make(map[string]Responder)}
}

// Register adds a responder. Registering a duplicate id is an administrative
// error and is rejected rather than silently replacing.
func (r *Registry) Register(resp Responder) error {
	if resp == nil {
		return fmt.Errorf("registry: nil responder")
	}
	id := resp.ID()
	if id == "" {
		return fmt.Errorf("registry: responder with empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.responders[id]; exists {
		return fmt.Errorf("registry: responder %q already registered", id)
	}
	r.responders[id] = resp
	r.order = append(r.order, id)
	return nil
}

// Remove deletes a responder by id, reporting whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.responders[id]; !exists {
		return false
	}
	delete(r.responders, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the responder with the given id.
func (r *Registry) Get(id string) (Responder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resp, ok := r.responders[id]
	return resp, ok
}

// All returns the responders in registration order. The returned slice is a
// copy; callers may not observe later administrative mutations through it.
func (r *Registry) All() []Responder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Responder, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.responders[id])
	}
	return out
}

// WithCapability returns, in registration order, every responder declaring
// the given capability.
func (r *Registry) WithCapability(capability string) []Responder {
	var out []Responder
	for _, resp := range r.All() {
		for _, c := range resp.Capabilities() {
			if c == capability {
				out = append(out, resp)
				break
			}
		}
	}
	return out
}

// Len returns the number of registered responders.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.responders)
}
