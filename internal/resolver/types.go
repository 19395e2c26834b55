package resolver

import (
	"hawk/internal/component"
	"hawk/internal/events"
	"hawk/internal/report"
)

// Entry is one resolved component.
type Entry struct {
	component.Component
	// Bindings are the validated event bindings of a hook.
	Bindings []events.Binding `json:"bindings,omitempty" yaml:"bindings,omitempty"`
}

// ToolSet is the effective set of one destination tool.
type ToolSet struct {
	Tool  string                     `json:"tool" yaml:"tool"`
	Dir   string                     `json:"dir" yaml:"dir"`
	Types map[component.Type][]Entry `json:"types" yaml:"types"`
}

// Entries returns the entries of type t.
func (s ToolSet) Entries(t component.Type) []Entry {
	return s.Types[t]
}

// Len returns the number of entries across all types.
func (s ToolSet) Len() int {
	n := 0
	for _, entries := range s.Types {
		n += len(entries)
	}
	return n
}

// ResolvedSet is the outcome of resolving one directory.
type ResolvedSet struct {
	Dir      string                     `json:"dir" yaml:"dir"`
	Types    map[component.Type][]Entry `json:"types" yaml:"types"`
	Warnings []report.Warning           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	// Hash identifies the inputs the set was computed from.
	Hash string `json:"hash" yaml:"hash"`

	tools map[string]ToolSet
}

// ForTool returns the base set adjusted by the overrides targeting tool.
func (r *ResolvedSet) ForTool(tool string) ToolSet {
	if ts, ok := r.tools[tool]; ok {
		return ts
	}
	return ToolSet{Tool: tool, Dir: r.Dir, Types: r.Types}
}

// Tools returns the tools with a computed set.
func (r *ResolvedSet) Tools() []string {
	return events.Tools()
}
