package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"hawk/internal/component"
	"hawk/internal/events"
	"hawk/pkg/logging"
)

// rawSelection accepts {enabled, disabled}, the legacy {enable, disable}, or a
// bare list meaning enabled.
type rawSelection struct {
	Selection
}

func (r *rawSelection) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Decode(&r.Enabled)
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: expected a list or an enabled/disabled mapping", node.Line)
	}

	var legacyEnable, legacyDisable []string
	var haveEnabled, haveDisabled bool
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var target *[]string
		switch key.Value {
		case "enabled":
			target, haveEnabled = &r.Enabled, true
		case "disabled":
			target, haveDisabled = &r.Disabled, true
		case "enable":
			target = &legacyEnable
		case "disable":
			target = &legacyDisable
		default:
			return fmt.Errorf("line %d: field %s not found, expected enabled or disabled", key.Line, key.Value)
		}
		if err := value.Decode(target); err != nil {
			return err
		}
	}
	if !haveEnabled {
		r.Enabled = legacyEnable
	}
	if !haveDisabled {
		r.Disabled = legacyDisable
	}
	return nil
}

type rawBinding struct {
	Events  []string `yaml:"events"`
	Matcher string   `yaml:"matcher"`
}

type rawOverride struct {
	Extra   []string `yaml:"extra"`
	Exclude []string `yaml:"exclude"`
}

type rawDestination struct {
	Enabled *bool  `yaml:"enabled"`
	Root    string `yaml:"root"`
}

type rawSync struct {
	Timeout string `yaml:"timeout"`
	Workers int    `yaml:"workers"`
}

// rawLayer is the on-disk schema including legacy spellings.
type rawLayer struct {
	Profile string `yaml:"profile"`

	Skills    *rawSelection `yaml:"skills"`
	Hooks     *rawSelection `yaml:"hooks"`
	Prompts   *rawSelection `yaml:"prompts"`
	Commands  *rawSelection `yaml:"commands"`
	Agents    *rawSelection `yaml:"agents"`
	MCP       *rawSelection `yaml:"mcp"`
	MCPLegacy *rawSelection `yaml:"mcp_servers"`

	Bindings      map[string]rawBinding             `yaml:"bindings"`
	Tools         map[string]map[string]rawOverride `yaml:"tools"`
	ToolOverrides map[string]map[string]rawOverride `yaml:"tool_overrides"`

	Directories  []string                  `yaml:"directories"`
	Dirs         []string                  `yaml:"dirs"`
	Destinations map[string]rawDestination `yaml:"destinations"`
	Sync         *rawSync                  `yaml:"sync"`
}

func (r *rawLayer) selection(t component.Type) *rawSelection {
	pick := func(current, legacy *rawSelection, legacyKey string) *rawSelection {
		if current != nil {
			if legacy != nil {
				logging.Debug("ConfigLoader", "Ignoring legacy key %s, %s is set", legacyKey, t)
			}
			return current
		}
		return legacy
	}
	switch t {
	case component.TypeSkill:
		return r.Skills
	case component.TypeHook:
		return r.Hooks
	case component.TypePrompt:
		return pick(r.Prompts, r.Commands, "commands")
	case component.TypeAgent:
		return r.Agents
	case component.TypeMCP:
		return pick(r.MCP, r.MCPLegacy, "mcp_servers")
	}
	return nil
}

func (r *rawLayer) hasGlobalKeys() bool {
	return r.Directories != nil || r.Dirs != nil || r.Destinations != nil || r.Sync != nil
}

// decodeLayer parses data into a layer of the given kind.
func decodeLayer(kind Kind, name, path string, data []byte) (*Layer, error) {
	l := newLayer(kind, name, path)
	l.Raw = data
	l.Exists = true

	var raw rawLayer
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, newParseError(path, kind, err)
	}

	l.Profile = raw.Profile
	for _, t := range component.AllTypes() {
		if sel := raw.selection(t); sel != nil && !sel.empty() {
			l.Types[t] = sel.Selection
		}
	}

	for hook, b := range raw.Bindings {
		l.Bindings[hook] = BindingOverride{Events: b.Events, Matcher: b.Matcher}
	}

	tools := raw.Tools
	if tools == nil {
		tools = raw.ToolOverrides
	}
	for tool, byType := range tools {
		if !events.IsKnownTool(tool) {
			return nil, newValidationError(path, kind,
				fmt.Sprintf("unknown tool %q in tools", tool),
				fmt.Sprintf("Valid tools: %v", events.Tools()))
		}
		l.Tools[tool] = map[component.Type]Override{}
		for typeKey, o := range byType {
			t, err := component.ParseType(typeKey)
			if err != nil {
				return nil, newValidationError(path, kind,
					fmt.Sprintf("tools.%s: %v", tool, err))
			}
			l.Tools[tool][t] = Override{Extra: o.Extra, Exclude: o.Exclude}
		}
	}

	if kind != KindGlobal {
		if raw.hasGlobalKeys() {
			return nil, newValidationError(path, kind,
				"directories, destinations and sync may only be set in the global config",
				"Move these keys to "+configFileName+" in the hawk home directory")
		}
		return l, nil
	}

	g, err := decodeGlobal(&raw)
	if err != nil {
		return nil, newValidationError(path, kind, err.Error())
	}
	l.Global = g
	return l, nil
}

func decodeGlobal(raw *rawLayer) (*GlobalConfig, error) {
	g := &GlobalConfig{Destinations: map[string]Destination{}}

	dirs := raw.Directories
	if dirs == nil {
		dirs = raw.Dirs
	}
	for _, d := range dirs {
		abs, err := ExpandHome(d)
		if err != nil {
			return nil, err
		}
		if !g.IsRegistered(abs) {
			g.Directories = append(g.Directories, abs)
		}
	}

	for tool, d := range raw.Destinations {
		if !events.IsKnownTool(tool) {
			return nil, fmt.Errorf("unknown tool %q in destinations", tool)
		}
		g.Destinations[tool] = Destination{Enabled: d.Enabled, Root: d.Root}
	}

	if raw.Sync != nil {
		if raw.Sync.Timeout != "" {
			d, err := time.ParseDuration(raw.Sync.Timeout)
			if err != nil {
				return nil, fmt.Errorf("sync.timeout: %w", err)
			}
			if d < 0 {
				return nil, fmt.Errorf("sync.timeout must not be negative")
			}
			g.Sync.Timeout = d
		}
		if raw.Sync.Workers < 0 {
			return nil, fmt.Errorf("sync.workers must not be negative")
		}
		g.Sync.Workers = raw.Sync.Workers
	}
	return g, nil
}

// layerFile is the written schema. It only carries the current vocabulary.
type layerFile struct {
	Profile      string                         `yaml:"profile,omitempty"`
	Skills       *Selection                     `yaml:"skills,omitempty"`
	Hooks        *Selection                     `yaml:"hooks,omitempty"`
	Prompts      *Selection                     `yaml:"prompts,omitempty"`
	Agents       *Selection                     `yaml:"agents,omitempty"`
	MCP          *Selection                     `yaml:"mcp,omitempty"`
	Bindings     map[string]BindingOverride     `yaml:"bindings,omitempty"`
	Tools        map[string]map[string]Override `yaml:"tools,omitempty"`
	Directories  []string                       `yaml:"directories,omitempty"`
	Destinations map[string]Destination         `yaml:"destinations,omitempty"`
	Sync         *syncFile                      `yaml:"sync,omitempty"`
}

type syncFile struct {
	Timeout string `yaml:"timeout,omitempty"`
	Workers int    `yaml:"workers,omitempty"`
}

// encodeLayer renders l in the current vocabulary.
func encodeLayer(l *Layer) ([]byte, error) {
	f := layerFile{Profile: l.Profile}
	slots := map[component.Type]**Selection{
		component.TypeSkill:  &f.Skills,
		component.TypeHook:   &f.Hooks,
		component.TypePrompt: &f.Prompts,
		component.TypeAgent:  &f.Agents,
		component.TypeMCP:    &f.MCP,
	}
	for t, slot := range slots {
		if sel, ok := l.Types[t]; ok && !sel.empty() {
			s := sel
			*slot = &s
		}
	}
	if len(l.Bindings) > 0 {
		f.Bindings = l.Bindings
	}
	for tool, byType := range l.Tools {
		for t, o := range byType {
			if o.empty() {
				continue
			}
			if f.Tools == nil {
				f.Tools = map[string]map[string]Override{}
			}
			if f.Tools[tool] == nil {
				f.Tools[tool] = map[string]Override{}
			}
			f.Tools[tool][string(t)] = o
		}
	}
	if g := l.Global; g != nil {
		f.Directories = g.Directories
		if len(g.Destinations) > 0 {
			f.Destinations = g.Destinations
		}
		if g.Sync.Timeout != 0 || g.Sync.Workers != 0 {
			f.Sync = &syncFile{Workers: g.Sync.Workers}
			if g.Sync.Timeout != 0 {
				f.Sync.Timeout = g.Sync.Timeout.String()
			}
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
