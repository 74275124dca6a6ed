// Package names keeps the set of display names claimed by connected clients.
package names

import (
	"sort"
	"sync"
)

// Registry - set of currently claimed names, safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	list map[string]struct{}
}

// NewRegistry - builds empty name registry.
func NewRegistry() *Registry {
	return &Registry{
		list: make(map[string]struct{}),
	}
}

// TryRegister - claims candidate if nobody holds it yet.
// The check and the insertion happen under the same lock.
func (r *Registry) TryRegister(candidate string) bool {
	if candidate == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.list[candidate]; ok {
		return false
	}
	r.list[candidate] = struct{}{}
	return true
}

// Release - frees the name, no-op when the name is not held.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.list, name)
}

// Len - returns number of claimed names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

// Names - returns sorted snapshot of claimed names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.list))
	for name := range r.list {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
