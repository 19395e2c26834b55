package config

import (
	"path/filepath"
	"sort"
	"time"

	"hawk/internal/component"
	"hawk/internal/report"
)

// Kind is the kind of a layer.
type Kind string

const (
	KindGlobal    Kind = "global"
	KindProfile   Kind = "profile"
	KindDirectory Kind = "directory"
)

// DefaultSyncTimeout bounds every single artifact operation.
const DefaultSyncTimeout = 10 * time.Second

// Selection is the enabled/disabled pair of one type in one layer.
type Selection struct {
	Enabled  []string `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Disabled []string `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

func (s Selection) empty() bool { return len(s.Enabled) == 0 && len(s.Disabled) == 0 }

// Override is a per-tool adjustment of one type.
type Override struct {
	Extra   []string `yaml:"extra,omitempty" json:"extra,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

func (o Override) empty() bool { return len(o.Extra) == 0 && len(o.Exclude) == 0 }

// BindingOverride replaces the header-declared events of a hook.
type BindingOverride struct {
	Events  []string `yaml:"events,omitempty" json:"events,omitempty"`
	Matcher string   `yaml:"matcher,omitempty" json:"matcher,omitempty"`
}

// Destination configures one destination tool.
type Destination struct {
	Enabled *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Root    string `yaml:"root,omitempty" json:"root,omitempty"`
}

// SyncSettings tunes the synchronization engine.
type SyncSettings struct {
	Timeout time.Duration `yaml:"-" json:"timeout"`
	Workers int           `yaml:"workers,omitempty" json:"workers,omitempty"`
}

// GlobalConfig holds the settings only the global layer may carry.
type GlobalConfig struct {
	Directories  []string               `json:"directories,omitempty"`
	Destinations map[string]Destination `json:"destinations,omitempty"`
	Sync         SyncSettings           `json:"sync"`
}

// DestinationEnabled reports whether tool is synchronized. Tools are enabled unless switched off.
func (g *GlobalConfig) DestinationEnabled(tool string) bool {
	if g == nil {
		return true
	}
	d, ok := g.Destinations[tool]
	if !ok || d.Enabled == nil {
		return true
	}
	return *d.Enabled
}

// DestinationRoot returns the global-scope root of tool, ~/.<tool> by default.
func (g *GlobalConfig) DestinationRoot(tool string) (string, error) {
	if g != nil {
		if d, ok := g.Destinations[tool]; ok && d.Root != "" {
			return ExpandHome(d.Root)
		}
	}
	home, err := userHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "."+tool), nil
}

// SyncTimeout returns the per-artifact timeout.
func (g *GlobalConfig) SyncTimeout() time.Duration {
	if g == nil || g.Sync.Timeout == 0 {
		return DefaultSyncTimeout
	}
	return g.Sync.Timeout
}

// SyncWorkers returns how many tools sync in parallel when jobs tools are
// due. Zero workers means one per tool.
func (g *GlobalConfig) SyncWorkers(jobs int) int {
	if g == nil || g.Sync.Workers <= 0 || g.Sync.Workers > jobs {
		return jobs
	}
	return g.Sync.Workers
}

// IsRegistered reports whether dir is a registered directory.
func (g *GlobalConfig) IsRegistered(dir string) bool {
	if g == nil {
		return false
	}
	for _, d := range g.Directories {
		if d == dir {
			return true
		}
	}
	return false
}

// Layer is one parsed configuration document.
type Layer struct {
	Kind Kind `json:"kind"`
	// Name is the profile name or the directory of a directory layer.
	Name string `json:"name,omitempty"`
	Path string `json:"path"`
	// Raw is the exact file content, empty when the file is absent.
	Raw    []byte `json:"-"`
	Exists bool   `json:"exists"`

	Profile  string                                 `json:"profile,omitempty"`
	Types    map[component.Type]Selection           `json:"types,omitempty"`
	Bindings map[string]BindingOverride             `json:"bindings,omitempty"`
	Tools    map[string]map[component.Type]Override `json:"tools,omitempty"`
	// Global is set on the global layer only.
	Global *GlobalConfig `json:"-"`
}

// Scope names the layer for warnings and output.
func (l *Layer) Scope() string {
	switch l.Kind {
	case KindProfile:
		return "profile:" + l.Name
	case KindDirectory:
		return "dir:" + l.Name
	default:
		return string(l.Kind)
	}
}

// Selection returns the lists of type t.
func (l *Layer) Selection(t component.Type) Selection {
	return l.Types[t]
}

// Override returns the per-tool override of type t.
func (l *Layer) Override(tool string, t component.Type) Override {
	return l.Tools[tool][t]
}

// Refs returns every reference of type t mentioned anywhere in the layer.
func (l *Layer) Refs(t component.Type) []string {
	seen := map[string]bool{}
	var refs []string
	add := func(list []string) {
		for _, r := range list {
			if !seen[r] {
				seen[r] = true
				refs = append(refs, r)
			}
		}
	}
	sel := l.Types[t]
	add(sel.Enabled)
	add(sel.Disabled)
	for _, tool := range sortedKeys(l.Tools) {
		o := l.Tools[tool][t]
		add(o.Extra)
		add(o.Exclude)
	}
	if t == component.TypeHook {
		for _, name := range sortedKeys(l.Bindings) {
			add([]string{name})
		}
	}
	return refs
}

// Scrub removes every reference of type t for which match returns true and
// reports whether the layer changed.
func (l *Layer) Scrub(t component.Type, match func(ref string) bool) bool {
	changed := false
	filter := func(list []string) []string {
		out := list[:0:0]
		for _, r := range list {
			if match(r) {
				changed = true
				continue
			}
			out = append(out, r)
		}
		return out
	}
	if sel, ok := l.Types[t]; ok {
		sel.Enabled = filter(sel.Enabled)
		sel.Disabled = filter(sel.Disabled)
		l.Types[t] = sel
	}
	for tool, byType := range l.Tools {
		if o, ok := byType[t]; ok {
			o.Extra = filter(o.Extra)
			o.Exclude = filter(o.Exclude)
			byType[t] = o
		}
		l.Tools[tool] = byType
	}
	if t == component.TypeHook {
		for name := range l.Bindings {
			if match(name) {
				delete(l.Bindings, name)
				changed = true
			}
		}
	}
	return changed
}

func newLayer(kind Kind, name, path string) *Layer {
	return &Layer{
		Kind:     kind,
		Name:     name,
		Path:     path,
		Types:    map[component.Type]Selection{},
		Bindings: map[string]BindingOverride{},
		Tools:    map[string]map[component.Type]Override{},
	}
}

// LayerSet is the ordered list of layers contributing to one directory.
type LayerSet struct {
	Dir    string
	Global *GlobalConfig
	// Layers is in application order: global, profiles, directory chain.
	Layers []*Layer
	// Chain is the registered ancestors-or-self of Dir, root to leaf.
	Chain    []string
	Warnings []report.Warning
}

// Nearest returns the nearest registered directory, or "" when Dir is unregistered.
func (s *LayerSet) Nearest() string {
	if len(s.Chain) == 0 {
		return ""
	}
	return s.Chain[len(s.Chain)-1]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
