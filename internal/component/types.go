package component

import (
	"fmt"
	"strings"
)

// Type is one of the five component kinds.
type Type string

const (
	// TypeSkill is behavior-shaping instruction text.
	TypeSkill Type = "skills"
	// TypeHook is an event-triggered script.
	TypeHook Type = "hooks"
	// TypePrompt is a slash-prompt template.
	TypePrompt Type = "prompts"
	// TypeAgent is an agent definition.
	TypeAgent Type = "agents"
	// TypeMCP is an RPC (MCP) server descriptor.
	TypeMCP Type = "mcp"
)

// AllTypes returns every component type in canonical order.
func AllTypes() []Type {
	return []Type{TypeSkill, TypeHook, TypePrompt, TypeAgent, TypeMCP}
}

// ParseType validates a type key.
func ParseType(s string) (Type, error) {
	for _, t := range AllTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown component type %q (valid: skills, hooks, prompts, agents, mcp)", s)
}

// Singular returns a human readable singular label.
func (t Type) Singular() string {
	switch t {
	case TypeSkill:
		return "skill"
	case TypeHook:
		return "hook"
	case TypePrompt:
		return "prompt"
	case TypeAgent:
		return "agent"
	case TypeMCP:
		return "mcp server"
	default:
		return string(t)
	}
}

// Identity names a component. Package is empty for unpackaged entries.
type Identity struct {
	Type    Type   `json:"type" yaml:"type"`
	Package string `json:"package,omitempty" yaml:"package,omitempty"`
	Name    string `json:"name" yaml:"name"`
}

// String renders the reference form: name or pkg/name.
func (id Identity) String() string {
	if id.Package == "" {
		return id.Name
	}
	return id.Package + "/" + id.Name
}

// Key renders a type-qualified unique key, e.g. "hooks/pkg/name".
func (id Identity) Key() string {
	return string(id.Type) + "/" + id.String()
}

// ParseRef splits a reference into package and name.
func ParseRef(ref string) (pkg, name string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", fmt.Errorf("empty component reference")
	}
	parts := strings.Split(ref, "/")
	switch len(parts) {
	case 1:
		return "", parts[0], nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("invalid component reference %q", ref)
		}
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("invalid component reference %q: at most one package qualifier allowed", ref)
	}
}

// Component is a resolved store entry.
type Component struct {
	Identity
	// Path is the absolute source path inside the store.
	Path string `json:"path" yaml:"path"`
	// Dir is true when the entry is a directory (skills only).
	Dir bool `json:"dir,omitempty" yaml:"dir,omitempty"`
	// Hook is set for event scripts.
	Hook *HookMeta `json:"hook,omitempty" yaml:"hook,omitempty"`
	// Server is set for RPC descriptors.
	Server *ServerDescriptor `json:"server,omitempty" yaml:"server,omitempty"`
}

// HookMeta is the header metadata of an event script.
type HookMeta struct {
	Events   []string `json:"events,omitempty" yaml:"events,omitempty"`
	Matcher  string   `json:"matcher,omitempty" yaml:"matcher,omitempty"`
	Blocking bool     `json:"blocking,omitempty" yaml:"blocking,omitempty"`
	// Timeout is in seconds; zero leaves the host default.
	Timeout int `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ServerDescriptor is the tool-agnostic description of an MCP server.
type ServerDescriptor struct {
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	URL       string            `json:"url,omitempty"`
	Transport string            `json:"transport,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// Remote reports whether the server is reached over the network.
func (s *ServerDescriptor) Remote() bool {
	return s.URL != ""
}
