package events

import (
	"errors"
	"fmt"
	"sort"
)

// Event is a canonical event name.
type Event string

const (
	PreToolUse       Event = "pre_tool_use"
	PostToolUse      Event = "post_tool_use"
	UserPromptSubmit Event = "user_prompt_submit"
	Notification     Event = "notification"
	Stop             Event = "stop"
	SubagentStop     Event = "subagent_stop"
	PreCompact       Event = "pre_compact"
	SessionStart     Event = "session_start"
	SessionEnd       Event = "session_end"
)

// Destination tool identifiers.
const (
	ToolClaude = "claude"
	ToolCodex  = "codex"
	ToolGemini = "gemini"
)

// Tier is the support level of an event on a tool.
type Tier string

const (
	TierNative      Tier = "native"
	TierBridged     Tier = "bridged"
	TierUnsupported Tier = "unsupported"
)

// ErrUnknownEvent is returned for names outside the canonical vocabulary.
var ErrUnknownEvent = errors.New("unknown canonical event")

// ErrUnknownTool is returned for tools without a contract column.
var ErrUnknownTool = errors.New("unknown destination tool")

// Mapping is the contract entry for one (event, tool) pair.
type Mapping struct {
	Event Event  `json:"event" yaml:"event"`
	Tool  string `json:"tool" yaml:"tool"`
	Tier  Tier   `json:"tier" yaml:"tier"`
	// Target is the host event name (native) or host mechanism (bridged).
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
}

// Binding ties an event script to one canonical event.
type Binding struct {
	Event    Event  `json:"event" yaml:"event"`
	Matcher  string `json:"matcher,omitempty" yaml:"matcher,omitempty"`
	Blocking bool   `json:"blocking,omitempty" yaml:"blocking,omitempty"`
	Timeout  int    `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// BridgeNotify is the codex mechanism: a program invoked after each agent turn.
const BridgeNotify = "notify"

func native(target string) Mapping { return Mapping{Tier: TierNative, Target: target} }
func bridged(via string) Mapping   { return Mapping{Tier: TierBridged, Target: via} }

var unsupported = Mapping{Tier: TierUnsupported}

var order = []Event{
	PreToolUse, PostToolUse, UserPromptSubmit, Notification, Stop,
	SubagentStop, PreCompact, SessionStart, SessionEnd,
}

var tools = []string{ToolClaude, ToolCodex, ToolGemini}

var contract = map[Event]map[string]Mapping{
	PreToolUse: {
		ToolClaude: native("PreToolUse"),
		ToolGemini: native("BeforeTool"),
		ToolCodex:  unsupported,
	},
	PostToolUse: {
		ToolClaude: native("PostToolUse"),
		ToolGemini: native("AfterTool"),
		ToolCodex:  unsupported,
	},
	UserPromptSubmit: {
		ToolClaude: native("UserPromptSubmit"),
		ToolGemini: native("BeforeAgent"),
		ToolCodex:  unsupported,
	},
	Notification: {
		ToolClaude: native("Notification"),
		ToolGemini: native("Notification"),
		ToolCodex:  unsupported,
	},
	Stop: {
		ToolClaude: native("Stop"),
		ToolGemini: native("AfterAgent"),
		ToolCodex:  bridged(BridgeNotify),
	},
	SubagentStop: {
		ToolClaude: native("SubagentStop"),
		ToolGemini: unsupported,
		ToolCodex:  unsupported,
	},
	PreCompact: {
		ToolClaude: native("PreCompact"),
		ToolGemini: native("PreCompress"),
		ToolCodex:  unsupported,
	},
	SessionStart: {
		ToolClaude: native("SessionStart"),
		ToolGemini: native("SessionStart"),
		ToolCodex:  unsupported,
	},
	SessionEnd: {
		ToolClaude: native("SessionEnd"),
		ToolGemini: native("SessionEnd"),
		ToolCodex:  unsupported,
	},
}

// Lookup returns the contract entry for event on tool.
func Lookup(event Event, tool string) (Mapping, error) {
	row, ok := contract[event]
	if !ok {
		return Mapping{}, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	m, ok := row[tool]
	if !ok {
		return Mapping{}, fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}
	m.Event = event
	m.Tool = tool
	return m, nil
}

// IsKnown reports whether name is a canonical event.
func IsKnown(name string) bool {
	_, ok := contract[Event(name)]
	return ok
}

// IsKnownTool reports whether the contract has a column for tool.
func IsKnownTool(tool string) bool {
	for _, t := range tools {
		if t == tool {
			return true
		}
	}
	return false
}

// Events returns the canonical events in display order.
func Events() []Event {
	out := make([]Event, len(order))
	copy(out, order)
	return out
}

// Tools returns the destination tools, sorted.
func Tools() []string {
	out := make([]string, len(tools))
	copy(out, tools)
	sort.Strings(out)
	return out
}

// Table returns every mapping, event-major in display order.
func Table() []Mapping {
	var out []Mapping
	for _, ev := range order {
		for _, tool := range Tools() {
			m, _ := Lookup(ev, tool)
			out = append(out, m)
		}
	}
	return out
}

// EventsForTarget returns the canonical events a tool maps to target, used when
// reading host configuration back.
func EventsForTarget(tool, target string) []Event {
	var out []Event
	for _, ev := range order {
		if m := contract[ev][tool]; m.Target == target {
			out = append(out, ev)
		}
	}
	return out
}
