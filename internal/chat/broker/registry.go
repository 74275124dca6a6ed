package broker

import "sync"

type registry struct {
	mu   sync.RWMutex
	list map[Channel]struct{}
}

func newRegistry() *registry {
	return &registry{
		list: make(map[Channel]struct{}),
	}
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

func (r *registry) has(ch Channel) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.list[ch]
	return ok
}

func (r *registry) add(ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.list[ch]; ok {
		return false
	}
	r.list[ch] = struct{}{}
	return true
}

func (r *registry) delete(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.list, ch)
}

// snapshot - copies current members, so callers may send without holding the lock.
func (r *registry) snapshot() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]Channel, 0, len(r.list))
	for ch := range r.list {
		members = append(members, ch)
	}
	return members
}
