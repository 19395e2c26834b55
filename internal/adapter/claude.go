package adapter

import (
	"path/filepath"

	"hawk/internal/component"
	"hawk/internal/events"
	"hawk/internal/fragment"
	"hawk/internal/resolver"
)

// Claude writes skills, commands, agents, hooks in settings.json and MCP
// servers in ~/.claude.json (or .mcp.json at project scope).
type Claude struct{}

// NewClaude creates the claude adapter.
func NewClaude() *Claude { return &Claude{} }

// Name implements Adapter.
func (c *Claude) Name() string { return events.ToolClaude }

// Materialize implements Adapter.
func (c *Claude) Materialize(set resolver.ToolSet, target Target) (*Plan, error) {
	b := newPlan(target, "skills", "commands", "agents", HookDir)

	b.skills(set)
	b.markdown(set, component.TypePrompt, "commands", true)
	b.markdown(set, component.TypeAgent, "agents", true)

	settings := DocumentSpec{
		Path:    filepath.Join(target.Root, "settings.json"),
		Format:  fragment.FormatJSON,
		HookDir: target.HookRoot(),
	}
	b.document(settings)
	for event, scripts := range b.hooks(set, &settings, 1) {
		// Every claude event is native; a bridged entry means the contract changed.
		for _, s := range scripts {
			b.warn(unbridgeable(target.Tool, event, s))
		}
	}

	servers := DocumentSpec{Path: filepath.Join(target.Home, ".claude.json"), Format: fragment.FormatJSON}
	if target.Scope == ScopeProject {
		servers.Path = filepath.Join(target.Dir, ".mcp.json")
	}
	b.document(servers)
	b.servers(set.Entries(component.TypeMCP), servers, "mcpServers", claudeServer)

	return b.finish(), nil
}
