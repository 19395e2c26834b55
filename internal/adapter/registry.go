package adapter

import (
	"fmt"
	"sort"
	"sync"

	"hawk/internal/template"
)

// Registry selects adapters by tool identifier.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates a registry holding adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Default returns a registry with every built-in adapter.
func Default() *Registry {
	engine := template.New()
	return NewRegistry(NewClaude(), NewCodex(engine), NewGemini())
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get returns the adapter of tool.
func (r *Registry) Get(tool string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[tool]
	if !ok {
		return nil, fmt.Errorf("no adapter for tool %q", tool)
	}
	return a, nil
}

// Names returns the registered tools, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
