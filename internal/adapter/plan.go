package adapter

import (
	"os"
	"path/filepath"
	"sort"

	"hawk/internal/component"
	"hawk/internal/events"
	"hawk/internal/fragment"
	"hawk/internal/report"
	"hawk/internal/resolver"
)

// planBuilder accumulates artifacts and rejects destination collisions.
type planBuilder struct {
	plan   *Plan
	owners map[string]DesiredArtifact
}

func newPlan(target Target, scan ...string) *planBuilder {
	p := &Plan{Tool: target.Tool, Target: target}
	for _, s := range scan {
		p.Scan = append(p.Scan, filepath.Join(target.Root, filepath.FromSlash(s)))
	}
	return &planBuilder{plan: p, owners: map[string]DesiredArtifact{}}
}

func (b *planBuilder) add(a DesiredArtifact) {
	id := a.ID()
	if prev, ok := b.owners[id]; ok {
		if prev.Component == a.Component && prev.Source == a.Source {
			return
		}
		b.warn(report.Newf(report.CodeConflict, b.plan.Tool, id,
			"%s and %s both map to %s; keeping %s", prev.Component, a.Component, id, prev.Component))
		return
	}
	b.owners[id] = a
	b.plan.Artifacts = append(b.plan.Artifacts, a)
}

func (b *planBuilder) link(path, source, comp string) {
	b.add(DesiredArtifact{Kind: KindLink, Path: path, Source: source, Component: comp})
}

func (b *planBuilder) generated(path string, content []byte, mode os.FileMode, comp string) {
	b.add(DesiredArtifact{Kind: KindBridge, Path: path, Content: content, Mode: mode, Component: comp})
}

func (b *planBuilder) fragment(doc DocumentSpec, section, key string, value any, comp string) {
	b.add(DesiredArtifact{
		Kind:      KindFragment,
		Document:  doc.Path,
		Section:   section,
		Key:       key,
		Value:     value,
		Component: comp,
	})
}

func (b *planBuilder) document(doc DocumentSpec) {
	for _, d := range b.plan.Documents {
		if d.Path == doc.Path {
			return
		}
	}
	b.plan.Documents = append(b.plan.Documents, doc)
}

func (b *planBuilder) warn(w report.Warning) {
	b.plan.Warnings = append(b.plan.Warnings, w)
}

func (b *planBuilder) unsupported(e resolver.Entry, what string) {
	b.warn(report.Newf(report.CodeUnsupported, b.plan.Tool, e.String(),
		"%s %s: %s", e.Type.Singular(), e.String(), what))
}

func (b *planBuilder) finish() *Plan {
	sort.SliceStable(b.plan.Artifacts, func(i, j int) bool {
		return b.plan.Artifacts[i].ID() < b.plan.Artifacts[j].ID()
	})
	sort.Slice(b.plan.Documents, func(i, j int) bool {
		return b.plan.Documents[i].Path < b.plan.Documents[j].Path
	})
	sort.Strings(b.plan.Scan)
	return b.plan
}

// flatName joins package and name for destinations without nesting.
func flatName(id component.Identity) string {
	if id.Package == "" {
		return id.Name
	}
	return id.Package + "-" + id.Name
}

// nestedPath places a packaged entry in a package subdirectory.
func nestedPath(dir string, id component.Identity, file string) string {
	if id.Package == "" {
		return filepath.Join(dir, file)
	}
	return filepath.Join(dir, id.Package, file)
}

// skills links every skill as skills/<name>. Single-file skills become
// skills/<name>/SKILL.md so every tool sees the directory layout it expects.
func (b *planBuilder) skills(set resolver.ToolSet) {
	dir := filepath.Join(b.plan.Target.Root, "skills")
	for _, e := range set.Entries(component.TypeSkill) {
		dest := filepath.Join(dir, flatName(e.Identity))
		if !e.Dir {
			dest = filepath.Join(dest, "SKILL.md")
		}
		b.link(dest, e.Path, e.Key())
	}
}

// markdown links markdown entries of type t into sub, nesting packaged entries
// when nested is true and flattening them otherwise.
func (b *planBuilder) markdown(set resolver.ToolSet, t component.Type, sub string, nested bool) {
	dir := filepath.Join(b.plan.Target.Root, sub)
	for _, e := range set.Entries(t) {
		var dest string
		if nested {
			dest = nestedPath(dir, e.Identity, e.Name+".md")
		} else {
			dest = filepath.Join(dir, flatName(e.Identity)+".md")
		}
		b.link(dest, e.Path, e.Key())
	}
}

// scriptLink is the destination of a linked event script.
func scriptLink(target Target, e resolver.Entry) string {
	return nestedPath(target.HookRoot(), e.Identity, filepath.Base(e.Path))
}

// hooks wires every binding of every event script according to the contract.
// Native bindings get a link and a group in doc; bridged bindings are grouped
// per event and returned for the caller to render.
func (b *planBuilder) hooks(set resolver.ToolSet, doc *DocumentSpec, timeoutScale int) map[events.Event][]bridgeScript {
	bridged := map[events.Event][]bridgeScript{}
	target := b.plan.Target
	for _, e := range set.Entries(component.TypeHook) {
		if len(e.Bindings) == 0 {
			b.warn(report.Newf(report.CodeUnsupported, target.Tool, e.String(),
				"hook %s declares no events; nothing to wire", e.String()))
			continue
		}
		link := scriptLink(target, e)
		for _, binding := range e.Bindings {
			m, err := events.Lookup(binding.Event, target.Tool)
			if err != nil {
				b.warn(report.Newf(report.CodeUnknownEvent, target.Tool, string(binding.Event), "%v", err))
				continue
			}
			switch m.Tier {
			case events.TierNative:
				if doc == nil {
					b.unsupported(e, "no hook registry for "+target.Tool)
					continue
				}
				b.link(link, e.Path, e.Key())
				b.fragment(*doc, fragment.SectionHooks, fragment.HookKey(m.Target, link),
					hookGroup(binding, link, timeoutScale), e.Key())
			case events.TierBridged:
				b.link(link, e.Path, e.Key())
				bridged[binding.Event] = append(bridged[binding.Event], bridgeScript{
					Component: e.String(),
					Path:      link,
					Blocking:  binding.Blocking,
				})
			default:
				b.warn(report.Newf(report.CodeUnsupported, target.Tool, e.String(),
					"hook %s binds %s, which %s does not support; not wired", e.String(), binding.Event, target.Tool))
			}
		}
	}
	return bridged
}

// hookGroup builds a host hook group running command.
func hookGroup(binding events.Binding, command string, timeoutScale int) map[string]any {
	h := map[string]any{"type": "command", "command": command}
	if binding.Timeout > 0 {
		h["timeout"] = binding.Timeout * timeoutScale
	}
	group := map[string]any{"hooks": []any{h}}
	if binding.Matcher != "" {
		group["matcher"] = binding.Matcher
	}
	return group
}
