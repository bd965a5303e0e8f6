package page

import (
	"sync"
	"time"
)

type registryKey struct {
	sid  string
	name string
}

type registryEntry struct {
	view     any
	lastUsed time.Time
}

// Registry holds one controller per browser session and page, so that the
// generation counter and debounce of a list survive across requests.
type Registry struct {
	mu      sync.Mutex
	entries map[registryKey]*registryEntry
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[registryKey]*registryEntry), now: time.Now}
}

// View returns the controller of sid and name, creating it with build.
func View[V any](r *Registry, sid, name string, build func() V) V {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey{sid: sid, name: name}
	if e, ok := r.entries[key]; ok {
		if v, ok := e.view.(V); ok {
			e.lastUsed = r.now()
			return v
		}
	}
	v := build()
	r.entries[key] = &registryEntry{view: v, lastUsed: r.now()}
	return v
}

// Drop forgets every controller of sid.
func (r *Registry) Drop(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.entries {
		if key.sid == sid {
			delete(r.entries, key)
		}
	}
}

// Sweep forgets controllers idle for longer than ttl and returns how many.
func (r *Registry) Sweep(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-ttl)
	n := 0
	for key, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, key)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
