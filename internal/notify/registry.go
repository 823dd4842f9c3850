// Package notify delivers "data at this address changed" signals to registered observers.
package notify

import (
	"sync"

	"inventory/internal/contract"
)

// Observer is called with the address whose data changed.
type Observer func(address string)

type registration struct {
	address     string
	descendants bool
	observer    Observer
}

// Registry keeps observers keyed by address. Notifications are delivered synchronously on
// the caller's goroutine; delivery order across observers is unspecified.
type Registry struct {
	mu        sync.RWMutex
	nextID    uint64
	observers map[uint64]registration
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		observers: make(map[uint64]registration),
	}
}

// Register adds observer for changes at address. With descendants set, changes to any
// address below it are delivered too. The returned func unregisters the observer and is
// safe to call more than once.
func (r *Registry) Register(address string, descendants bool, observer Observer) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.observers[id] = registration{address: address, descendants: descendants, observer: observer}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.observers, id)
		r.mu.Unlock()
	}
}

// Notify informs every interested observer that data at address changed.
func (r *Registry) Notify(address string) {
	r.mu.RLock()
	targets := make([]Observer, 0, len(r.observers))
	for _, reg := range r.observers {
		if reg.interestedIn(address) {
			targets = append(targets, reg.observer)
		}
	}
	r.mu.RUnlock()

	// called without the lock so observers may register or unregister
	for _, observer := range targets {
		observer(address)
	}
}

// Len returns the number of registered observers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}

func (reg registration) interestedIn(changed string) bool {
	switch {
	case changed == reg.address:
		return true
	case reg.descendants && contract.IsDescendant(reg.address, changed):
		return true
	default:
		// a change to a collection reaches observers of its members
		return contract.IsDescendant(changed, reg.address)
	}
}
