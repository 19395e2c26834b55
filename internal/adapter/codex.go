package adapter

import (
	"path/filepath"
	"sort"

	"hawk/internal/component"
	"hawk/internal/events"
	"hawk/internal/fragment"
	"hawk/internal/resolver"
	"hawk/internal/template"
)

// codexTurnComplete is the notify payload type codex emits after each agent turn.
const codexTurnComplete = "agent-turn-complete"

// Codex writes skills, prompts, bridged hooks and MCP servers in config.toml.
// Codex has no hook registry; the stop event is carried by its notify program.
type Codex struct {
	engine *template.Engine
}

// NewCodex creates the codex adapter.
func NewCodex(engine *template.Engine) *Codex {
	if engine == nil {
		engine = template.New()
	}
	return &Codex{engine: engine}
}

// Name implements Adapter.
func (c *Codex) Name() string { return events.ToolCodex }

// Materialize implements Adapter.
func (c *Codex) Materialize(set resolver.ToolSet, target Target) (*Plan, error) {
	b := newPlan(target, "skills", "prompts", HookDir)

	b.skills(set)
	b.markdown(set, component.TypePrompt, "prompts", false)
	for _, e := range set.Entries(component.TypeAgent) {
		b.unsupported(e, "codex has no agent definitions; skipped")
	}

	config := DocumentSpec{Path: filepath.Join(target.Root, "config.toml"), Format: fragment.FormatTOML}
	b.document(config)

	bridged := b.hooks(set, nil, 1)
	bridgedEvents := make([]events.Event, 0, len(bridged))
	for ev := range bridged {
		bridgedEvents = append(bridgedEvents, ev)
	}
	sort.Slice(bridgedEvents, func(i, j int) bool { return bridgedEvents[i] < bridgedEvents[j] })

	var notify []string
	for _, ev := range bridgedEvents {
		m, err := events.Lookup(ev, target.Tool)
		if err != nil {
			return nil, err
		}
		if m.Target != events.BridgeNotify {
			for _, s := range bridged[ev] {
				b.warn(unbridgeable(target.Tool, ev, s))
			}
			continue
		}
		path, content, err := renderBridge(c.engine, target, ev, m.Target, codexTurnComplete, bridged[ev])
		if err != nil {
			return nil, err
		}
		b.generated(path, content, bridgeMode, "")
		notify = append(notify, path)
	}
	if len(notify) > 0 {
		// codex runs a single notify program.
		b.fragment(config, fragment.SectionTopLevel, "notify", notify[:1], "")
	}

	b.servers(set.Entries(component.TypeMCP), config, "mcp_servers", codexServer)
	return b.finish(), nil
}
