package resolver

import (
	"context"
	"fmt"
	"strings"

	"hawk/internal/component"
	"hawk/internal/config"
	"hawk/internal/events"
	"hawk/internal/report"
	"hawk/pkg/logging"
)

// Resolver turns layer sets into resolved sets.
type Resolver struct {
	store component.Store
	cache *Cache
}

// New creates a resolver. cache may be nil.
func New(store component.Store, cache *Cache) *Resolver {
	return &Resolver{store: store, cache: cache}
}

// Store returns the component store the resolver reads.
func (r *Resolver) Store() component.Store { return r.store }

// Resolve computes the effective set of layers.Dir.
func (r *Resolver) Resolve(ctx context.Context, layers *config.LayerSet) (*ResolvedSet, error) {
	mapping, err := r.store.Mapping(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read component store: %w", err)
	}
	hash := InputHash(layers, mapping)

	if r.cache != nil {
		if rs, ok := r.cache.Get(hash); ok {
			logging.Debug("Resolver", "Resolved set for %s served from memo", layers.Dir)
			return rs, nil
		}
	}

	rs, err := r.resolve(ctx, layers)
	if err != nil {
		return nil, err
	}
	rs.Hash = hash
	if r.cache != nil {
		r.cache.Add(hash, rs)
	}
	return rs, nil
}

func (r *Resolver) resolve(ctx context.Context, layers *config.LayerSet) (*ResolvedSet, error) {
	n := &normalizer{ctx: ctx, store: r.store, memo: map[string]ref{}}
	w := &warnings{seen: map[string]bool{}}
	w.list = append(w.list, layers.Warnings...)

	rs := &ResolvedSet{
		Dir:   layers.Dir,
		Types: map[component.Type][]Entry{},
		tools: map[string]ToolSet{},
	}
	bindings := newBindingIndex(n, layers.Layers)

	bases := map[component.Type]*orderedSet{}
	for _, t := range component.AllTypes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bases[t] = n.fold(t, layers.Layers, w)
		rs.Types[t] = materialize(t, bases[t], bindings, w)
	}

	for _, tool := range events.Tools() {
		ts := ToolSet{Tool: tool, Dir: layers.Dir, Types: map[component.Type][]Entry{}}
		for _, t := range component.AllTypes() {
			ts.Types[t] = materialize(t, n.adjust(bases[t], t, tool, layers.Layers, w), bindings, w)
		}
		rs.tools[tool] = ts
	}

	rs.Warnings = w.list
	logging.Debug("Resolver", "Resolved %s: %d warnings", layers.Dir, len(rs.Warnings))
	return rs, nil
}

// materialize drops unresolved keys and attaches hook bindings.
func materialize(t component.Type, set *orderedSet, b *bindingIndex, w *warnings) []Entry {
	entries := make([]Entry, 0, len(set.keys))
	for _, key := range set.keys {
		r := set.refs[key]
		if r.comp == nil {
			w.unresolved(t, r, set.scope[key])
			continue
		}
		e := Entry{Component: *r.comp}
		if t == component.TypeHook {
			e.Bindings = b.bindings(*r.comp, w)
		}
		entries = append(entries, e)
	}
	return entries
}

// bindingIndex holds the last-layer-wins event override of each hook.
type bindingIndex struct {
	overrides map[string]config.BindingOverride
	scopes    map[string]string
}

func newBindingIndex(n *normalizer, layers []*config.Layer) *bindingIndex {
	b := &bindingIndex{overrides: map[string]config.BindingOverride{}, scopes: map[string]string{}}
	for _, l := range layers {
		for _, name := range sortedNames(l.Bindings) {
			r := n.normalize(component.TypeHook, name)
			b.overrides[r.key] = l.Bindings[name]
			b.scopes[r.key] = l.Scope()
		}
	}
	return b
}

func (b *bindingIndex) bindings(c component.Component, w *warnings) []events.Binding {
	var names []string
	var matcher string
	var blocking bool
	var timeout int
	if c.Hook != nil {
		names, matcher, blocking, timeout = c.Hook.Events, c.Hook.Matcher, c.Hook.Blocking, c.Hook.Timeout
	}
	scope := c.Key()
	if o, ok := b.overrides[c.Key()]; ok {
		if len(o.Events) > 0 {
			names = o.Events
		}
		if o.Matcher != "" {
			matcher = o.Matcher
		}
		scope = b.scopes[c.Key()]
	}

	var out []events.Binding
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if seen[name] {
			continue
		}
		seen[name] = true
		if !events.IsKnown(name) {
			w.add(report.Newf(report.CodeUnknownEvent, scope, name,
				"hook %s binds unknown event %q; binding skipped", c.String(), name))
			continue
		}
		out = append(out, events.Binding{
			Event:    events.Event(name),
			Matcher:  matcher,
			Blocking: blocking,
			Timeout:  timeout,
		})
	}
	return out
}
