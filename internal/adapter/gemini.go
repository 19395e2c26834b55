package adapter

import (
	"path/filepath"

	"hawk/internal/component"
	"hawk/internal/events"
	"hawk/internal/fragment"
	"hawk/internal/report"
	"hawk/internal/resolver"
)

// Gemini writes skills, TOML commands, and hooks and MCP servers in settings.json.
// Agent definitions have no gemini equivalent.
type Gemini struct{}

// NewGemini creates the gemini adapter.
func NewGemini() *Gemini { return &Gemini{} }

// Name implements Adapter.
func (g *Gemini) Name() string { return events.ToolGemini }

// Materialize implements Adapter.
func (g *Gemini) Materialize(set resolver.ToolSet, target Target) (*Plan, error) {
	b := newPlan(target, "skills", "commands", HookDir)

	b.skills(set)

	commands := filepath.Join(target.Root, "commands")
	for _, e := range set.Entries(component.TypePrompt) {
		content, err := renderCommandTOML(e.Path)
		if err != nil {
			b.warn(report.Newf(report.CodeIO, target.Tool, e.String(), "prompt %s: %v", e.String(), err))
			continue
		}
		b.generated(nestedPath(commands, e.Identity, e.Name+".toml"), content, 0644, e.Key())
	}

	for _, e := range set.Entries(component.TypeAgent) {
		b.unsupported(e, "gemini has no agent definitions; skipped")
	}

	settings := DocumentSpec{
		Path:    filepath.Join(target.Root, "settings.json"),
		Format:  fragment.FormatJSON,
		HookDir: target.HookRoot(),
	}
	b.document(settings)
	// Gemini hook timeouts are in milliseconds.
	for event, scripts := range b.hooks(set, &settings, 1000) {
		for _, s := range scripts {
			b.warn(unbridgeable(target.Tool, event, s))
		}
	}
	b.servers(set.Entries(component.TypeMCP), settings, "mcpServers", geminiServer)

	return b.finish(), nil
}

func unbridgeable(tool string, event events.Event, s bridgeScript) report.Warning {
	return report.Newf(report.CodeUnsupported, tool, s.Component,
		"hook %s binds %s, which %s cannot bridge; not wired", s.Component, event, tool)
}
