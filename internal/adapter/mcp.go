package adapter

import (
	"hawk/internal/component"
	"hawk/internal/resolver"
)

// serverEntry renders a descriptor in one host's vocabulary.
type serverEntry func(*component.ServerDescriptor) map[string]any

func withCommand(out map[string]any, s *component.ServerDescriptor) map[string]any {
	out["command"] = s.Command
	if len(s.Args) > 0 {
		out["args"] = s.Args
	}
	if len(s.Env) > 0 {
		out["env"] = s.Env
	}
	return out
}

func isSSE(s *component.ServerDescriptor) bool { return s.Transport == "sse" }

func claudeServer(s *component.ServerDescriptor) map[string]any {
	if !s.Remote() {
		return withCommand(map[string]any{"type": "stdio"}, s)
	}
	out := map[string]any{"type": "http", "url": s.URL}
	if isSSE(s) {
		out["type"] = "sse"
	}
	if len(s.Headers) > 0 {
		out["headers"] = s.Headers
	}
	return out
}

func geminiServer(s *component.ServerDescriptor) map[string]any {
	if !s.Remote() {
		return withCommand(map[string]any{}, s)
	}
	out := map[string]any{}
	if isSSE(s) {
		out["url"] = s.URL
	} else {
		out["httpUrl"] = s.URL
	}
	if len(s.Headers) > 0 {
		out["headers"] = s.Headers
	}
	return out
}

func codexServer(s *component.ServerDescriptor) map[string]any {
	if !s.Remote() {
		return withCommand(map[string]any{}, s)
	}
	out := map[string]any{"url": s.URL}
	if len(s.Headers) > 0 {
		out["http_headers"] = s.Headers
	}
	return out
}

// servers adds one fragment entry per resolved descriptor.
func (b *planBuilder) servers(entries []resolver.Entry, doc DocumentSpec, section string, render serverEntry) {
	for _, e := range entries {
		if e.Server == nil {
			b.unsupported(e, "descriptor could not be read")
			continue
		}
		b.fragment(doc, section, flatName(e.Identity), render(e.Server), e.Key())
	}
}
