package metrics

import (
	"context"
	"sort"
	"sync"

	"mqtt-monitor/internal/domain"
)

// Probe reads one metric. A nil error with a null value counts as a
// failed reading.
type Probe func(ctx context.Context) (domain.Value, error)

type Registry struct {
	mu     sync.RWMutex
	probes map[string]Probe
}

func NewRegistry() *Registry {
	return &Registry{
		probes: make(map[string]Probe),
	}
}

func (r *Registry) Register(name string, p Probe) {
	r.mu.Lock()
	r.probes[name] = p
	r.mu.Unlock()
}

func (r *Registry) Lookup(name string) (Probe, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.probes[name]
	return p, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.probes))
	for name := range r.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
