package worker

import (
	"sort"
	"sync"
)

// Registry holds workers by ID and maintains a capability index mapping each
// declared tag to the set of worker IDs that own it. It provides thread-safe
// registration and lookup; the registry is read-mostly after startup, so
// mutation is serialized against concurrent lookups with a readers-writer
// lock.
//
// The registry holds references only; it does not own worker internals.
type Registry struct {
	// workers maps worker IDs to their implementations.
	workers map[string]Worker
	// index maps capability tags to the set of worker IDs declaring them.
	// Invariant: no tag is ever mapped to an empty set.
	index map[string]map[string]struct{}
	// mu protects all fields.
	mu sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		workers: make(map[string]Worker),
		index:   make(map[string]map[string]struct{}),
	}
}

// Register stores a worker by ID and indexes every capability it declares.
// Returns a DuplicateError if the ID is already registered; the existing
// worker is left untouched.
func (r *Registry) Register(w Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := w.ID()
	if _, exists := r.workers[id]; exists {
		return &DuplicateError{ID: id}
	}

	r.workers[id] = w
	for _, tag := range w.Capabilities() {
		owners, ok := r.index[tag]
		if !ok {
			owners = make(map[string]struct{})
			r.index[tag] = owners
		}
		owners[id] = struct{}{}
	}
	return nil
}

// Unregister removes the worker and purges its ID from every capability
// entry, deleting entries that become empty so no dangling tags remain.
// Returns a NotFoundError if the ID is unknown.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workers[id]; !exists {
		return &NotFoundError{ID: id}
	}
	delete(r.workers, id)

	for tag, owners := range r.index {
		delete(owners, id)
		if len(owners) == 0 {
			delete(r.index, tag)
		}
	}
	return nil
}

// Lookup returns the worker registered under id, or a NotFoundError.
func (r *Registry) Lookup(id string) (Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workers[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return w, nil
}

// CapabilityOwners returns the sorted IDs of workers declaring the tag.
// Unknown tags yield an empty slice, never an error.
func (r *Registry) CapabilityOwners(tag string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owners := r.index[tag]
	ids := make([]string, 0, len(owners))
	for id := range owners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Capabilities returns every tag currently owned by at least one worker,
// sorted.
func (r *Registry) Capabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.index))
	for tag := range r.index {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Workers returns all registered workers ordered by ID.
func (r *Registry) Workers() []Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.workers))
	for id := range r.workers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	workers := make([]Worker, 0, len(ids))
	for _, id := range ids {
		workers = append(workers, r.workers[id])
	}
	return workers
}

// Count returns the number of registered workers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}
