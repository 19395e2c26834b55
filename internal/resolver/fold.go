package resolver

import (
	"context"
	"errors"
	"sort"

	"hawk/internal/component"
	"hawk/internal/config"
	"hawk/internal/report"
)

// ref is a normalised reference.
type ref struct {
	key  string
	raw  string
	comp *component.Component
	err  error
}

// orderedSet keeps insertion order; a removed key that is added again moves to the end.
type orderedSet struct {
	keys  []string
	index map[string]int
	refs  map[string]ref
	scope map[string]string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: map[string]int{}, refs: map[string]ref{}, scope: map[string]string{}}
}

func (s *orderedSet) add(r ref, scope string) {
	s.scope[r.key] = scope
	if _, ok := s.index[r.key]; ok {
		return
	}
	s.index[r.key] = len(s.keys)
	s.keys = append(s.keys, r.key)
	s.refs[r.key] = r
}

func (s *orderedSet) remove(key string) {
	i, ok := s.index[key]
	if !ok {
		return
	}
	s.keys = append(s.keys[:i], s.keys[i+1:]...)
	delete(s.index, key)
	delete(s.refs, key)
	for j := i; j < len(s.keys); j++ {
		s.index[s.keys[j]] = j
	}
}

func (s *orderedSet) clone() *orderedSet {
	c := newOrderedSet()
	for _, k := range s.keys {
		c.add(s.refs[k], s.scope[k])
	}
	return c
}

// normalizer resolves raw references against the store once per run.
type normalizer struct {
	ctx   context.Context
	store component.Store
	memo  map[string]ref
}

func (n *normalizer) normalize(t component.Type, raw string) ref {
	memoKey := string(t) + "\x00" + raw
	if r, ok := n.memo[memoKey]; ok {
		return r
	}
	r := ref{raw: raw}
	c, err := n.store.Resolve(n.ctx, t, raw)
	if err != nil {
		r.key = string(t) + "/?" + raw
		r.err = err
	} else {
		r.key = c.Key()
		r.comp = &c
	}
	n.memo[memoKey] = r
	return r
}

// fold applies the enable/disable steps of every layer for type t.
func (n *normalizer) fold(t component.Type, layers []*config.Layer, w *warnings) *orderedSet {
	set := newOrderedSet()
	for _, l := range layers {
		sel := l.Selection(t)
		for _, raw := range sel.Enabled {
			set.add(n.normalize(t, raw), l.Scope())
		}
		for _, raw := range sel.Disabled {
			set.remove(n.subtracted(t, raw, l.Scope(), w))
		}
	}
	return set
}

// subtracted normalises a disable or exclude reference. A name missing from
// the store is a silent no-op; an ambiguous one removes nothing and is
// reported, since the caller cannot tell which component stays enabled.
func (n *normalizer) subtracted(t component.Type, raw, scope string, w *warnings) string {
	r := n.normalize(t, raw)
	var amb *component.AmbiguousError
	if errors.As(r.err, &amb) {
		w.add(report.Newf(report.CodeAmbiguous, scope, raw, "cannot disable %s: %v", t.Singular(), amb))
	}
	return r.key
}

// adjust applies the union of extras and then the union of excludes for tool.
func (n *normalizer) adjust(base *orderedSet, t component.Type, tool string, layers []*config.Layer, w *warnings) *orderedSet {
	set := base.clone()
	for _, l := range layers {
		for _, raw := range l.Override(tool, t).Extra {
			set.add(n.normalize(t, raw), l.Scope()+"@"+tool)
		}
	}
	for _, l := range layers {
		for _, raw := range l.Override(tool, t).Exclude {
			set.remove(n.subtracted(t, raw, l.Scope()+"@"+tool, w))
		}
	}
	return set
}

// warnings collects the drop warnings of unresolved references still present.
type warnings struct {
	list []report.Warning
	seen map[string]bool
}

func (w *warnings) add(wr report.Warning) {
	k := string(wr.Code) + "\x00" + wr.Scope + "\x00" + wr.Subject
	if w.seen[k] {
		return
	}
	w.seen[k] = true
	w.list = append(w.list, wr)
}

func (w *warnings) unresolved(t component.Type, r ref, scope string) {
	var amb *component.AmbiguousError
	var meta *component.MetadataError
	switch {
	case errors.As(r.err, &amb):
		w.add(report.Newf(report.CodeAmbiguous, scope, r.raw, "%v", amb))
	case errors.As(r.err, &meta):
		w.add(report.Newf(report.CodeInvalidMeta, scope, r.raw, "%s %q dropped: %v", t.Singular(), r.raw, meta.Reason))
	default:
		w.add(report.Newf(report.CodeUnresolvable, scope, r.raw, "%s %q not found in registry", t.Singular(), r.raw))
	}
}

func sortedNames(m map[string]config.BindingOverride) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
