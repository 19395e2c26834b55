package component

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory Store for tests and dry composition.
type MemStore struct {
	mu    sync.RWMutex
	root  string
	items map[Type][]Component
}

// NewMemStore creates an empty store that claims root as its directory.
func NewMemStore(root string) *MemStore {
	return &MemStore{root: root, items: make(map[Type][]Component)}
}

// Add registers a component, replacing any entry with the same identity.
func (m *MemStore) Add(c Component) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.items[c.Type]
	for i := range list {
		if list[i].Identity == c.Identity {
			list[i] = c
			return
		}
	}
	m.items[c.Type] = append(list, c)
}

// Root implements Store.
func (m *MemStore) Root() string { return m.root }

// List implements Store.
func (m *MemStore) List(_ context.Context, t Type) ([]Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]Identity, 0, len(m.items[t]))
	for _, c := range m.items[t] {
		ids = append(ids, c.Identity)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Package != ids[j].Package {
			return ids[i].Package < ids[j].Package
		}
		return ids[i].Name < ids[j].Name
	})
	return ids, nil
}

// Resolve implements Store.
func (m *MemStore) Resolve(_ context.Context, t Type, ref string) (Component, error) {
	pkg, name, err := ParseRef(ref)
	if err != nil {
		return Component{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Component
	for _, c := range m.items[t] {
		if c.Name == name && (pkg == "" || c.Package == pkg) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return Component{}, fmt.Errorf("%s %q: %w", t.Singular(), ref, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		amb := &AmbiguousError{Type: t, Ref: ref}
		for _, c := range matches {
			amb.Candidates = append(amb.Candidates, c.Identity)
		}
		sort.Slice(amb.Candidates, func(i, j int) bool {
			return amb.Candidates[i].String() < amb.Candidates[j].String()
		})
		return Component{}, amb
	}
}

// Mapping implements Store.
func (m *MemStore) Mapping(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mapping := make(map[string]string)
	for _, list := range m.items {
		for _, c := range list {
			value := c.Path
			var raw []byte
			if c.Server != nil {
				raw, _ = json.Marshal(c.Server)
			}
			if d := digest(Component{Hook: c.Hook}, raw); d != "" {
				value += "#" + d
			}
			mapping[c.Key()] = value
		}
	}
	return mapping, nil
}

// Remove implements Store.
func (m *MemStore) Remove(_ context.Context, id Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.items[id.Type]
	for i := range list {
		if list[i].Identity == id {
			m.items[id.Type] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s %q: %w", id.Type.Singular(), id.String(), ErrNotFound)
}
