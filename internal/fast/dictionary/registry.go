package dictionary

import (
	"sort"
	"sync"
)

// Registry hands out an independent Set per session key so that separate
// feeds never share history.
type Registry struct {
	mu   sync.Mutex
	sets map[string]*Set
}

func NewRegistry() *Registry {
	return &Registry{sets: make(map[string]*Set)}
}

// Session returns the Set for key, creating it on first use.
func (r *Registry) Session(key string) *Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sets[key]
	if !ok {
		s = NewSet()
		r.sets[key] = s
	}
	return s
}

// Reset clears the history of one session.
func (r *Registry) Reset(key string) {
	r.mu.Lock()
	s := r.sets[key]
	r.mu.Unlock()
	if s != nil {
		s.ClearAll()
	}
}

func (r *Registry) ClearAll() {
	r.mu.Lock()
	sets := make([]*Set, 0, len(r.sets))
	for _, s := range r.sets {
		sets = append(sets, s)
	}
	r.mu.Unlock()
	for _, s := range sets {
		s.ClearAll()
	}
}

func (r *Registry) Sessions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.sets))
	for k := range r.sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
