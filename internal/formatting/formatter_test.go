package formatting

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"hawk/internal/adapter"
	"hawk/internal/component"
	"hawk/internal/config"
	"hawk/internal/events"
	"hawk/internal/reconciler"
	"hawk/internal/report"
	"hawk/internal/resolver"
)

func sampleResult() *reconciler.SyncResult {
	return &reconciler.SyncResult{
		RunID:    "run-1",
		Dir:      "/work/repo",
		Duration: 1500 * time.Millisecond,
		Tools: []reconciler.ToolResult{
			{
				Tool:   "claude",
				Scope:  adapter.ScopeProject,
				Root:   "/work/repo/.claude",
				Counts: reconciler.Counts{Created: 2, Conflicts: 1},
				Artifacts: []reconciler.ArtifactResult{
					{ID: "skills/tidy", Kind: adapter.KindLink, State: reconciler.StateAbsent, Action: reconciler.ActionCreate},
					{ID: "commands/deploy.md", Kind: adapter.KindLink, State: reconciler.StateUnmanaged, Action: reconciler.ActionSkip},
				},
				Warnings: []report.Warning{report.Newf(report.CodeConflict, "claude", "commands/deploy.md", "not managed by hawk, left alone")},
			},
			{Tool: "codex", Scope: adapter.ScopeGlobal, Root: "/home/u/.codex", UpToDate: true, Cached: true},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"wide", FormatWide, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableFormatter_SyncResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{Format: FormatTable}).SyncResult(sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "TOOL")
	assert.Contains(t, out, "/work/repo/.claude")
	assert.Contains(t, out, "up to date (cached)")
	assert.Contains(t, out, "commands/deploy.md")
	assert.Contains(t, out, "not managed by hawk")
	assert.Contains(t, out, "Synced with warnings /work/repo in 1.5s")
	assert.NotContains(t, out, "\x1b[", "colour disabled")
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, Options{Format: FormatTable, NoHeaders: true})
	require.NoError(t, f.Events(events.Table()))
	assert.NotContains(t, buf.String(), "EVENT")
	assert.Contains(t, buf.String(), "pre_tool_use")
}

func TestJSONFormatter_SyncResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{Format: FormatJSON}).SyncResult(sampleResult()))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "warnings", got["status"])
	assert.Equal(t, "run-1", got["runId"])
	assert.Len(t, got["tools"], 2)
}

func TestYAMLFormatter_SyncResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{Format: FormatYAML}).SyncResult(sampleResult()))

	var got map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "warnings", got["status"])
	assert.Equal(t, "/work/repo", got["dir"])
}

func TestFormatters_RejectNilResult(t *testing.T) {
	for _, format := range []OutputFormat{FormatTable, FormatJSON, FormatYAML} {
		err := New(&bytes.Buffer{}, Options{Format: format}).SyncResult(nil)
		assert.True(t, errors.Is(err, ErrNilResult), format)
	}
}

func TestResolved(t *testing.T) {
	hook := component.Component{
		Identity: component.Identity{Type: component.TypeHook, Name: "guard"},
		Path:     "/registry/hooks/guard.sh",
		Hook:     &component.HookMeta{Events: []string{"pre_tool_use"}},
	}

	rs := &resolver.ResolvedSet{
		Dir:  "/work",
		Hash: "abc",
		Types: map[component.Type][]resolver.Entry{
			component.TypeHook: {{Component: hook, Bindings: []events.Binding{{Event: events.PreToolUse, Matcher: "Bash", Blocking: true}}}},
		},
		Warnings: []report.Warning{report.Newf(report.CodeUnresolvable, "global", "missing", "skill missing not found")},
	}
	v := NewResolved(rs, []string{"claude", "gemini"})
	require.Len(t, v.Tools, 2)
	assert.Equal(t, []string{"[unresolvable-reference] global: skill missing not found"}, v.Warnings)

	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{Format: FormatWide}).Resolved(v))
	out := buf.String()
	assert.Contains(t, out, "pre_tool_use(Bash) blocking")
	assert.Contains(t, out, "/registry/hooks/guard.sh")
	assert.Contains(t, out, "skill missing not found")

	buf.Reset()
	require.NoError(t, New(&buf, Options{}).Resolved(Resolved{Dir: "/empty"}))
	assert.Contains(t, buf.String(), "No components enabled for /empty")
}

func TestEvents_Matrix(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{}).Events(events.Table()))
	out := buf.String()
	assert.Contains(t, out, "PreToolUse")
	assert.Contains(t, out, "BeforeTool")
	assert.Contains(t, out, "via "+events.BridgeNotify)
}

func TestStatus(t *testing.T) {
	s := Status{
		Home:        "/home/u/.config/hawk",
		Directories: []string{"/work"},
		Managed: []*reconciler.CacheEntry{{
			Directory: "/work", Tool: "claude",
			Artifacts: []reconciler.CachedArtifact{{Path: "/work/.claude/skills/tidy", Kind: reconciler.CachedLink}},
			UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{}).Status(s))
	assert.Contains(t, buf.String(), "1 registered")
	assert.Contains(t, buf.String(), "claude")
	assert.NotContains(t, buf.String(), "Session:")

	s.Metrics = reconciler.SyncMetricsSummary{TotalRuns: 4, TotalCacheHits: 1, TotalFailures: 1, FailureRate: 0.25,
		PerTool: []reconciler.ToolMetricView{{Tool: "claude", Runs: 4}}}
	buf.Reset()
	require.NoError(t, New(&buf, Options{}).Status(s))
	assert.Contains(t, buf.String(), "4 runs, 1 cached, 1 failed (25%)")

	buf.Reset()
	require.NoError(t, New(&buf, Options{Format: FormatJSON}).Status(s))
	var got Status
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, s.Managed[0].Artifacts, got.Managed[0].Artifacts)
}

func TestCheck(t *testing.T) {
	layers := &config.LayerErrorCollection{}
	layers.Add("/home/u/.config/hawk/profiles/work.yaml", config.KindProfile, errors.New("line 2: field bogus not found"))
	c := NewCheck(layers, []error{errors.New("hook bad: invalid timeout")})
	assert.False(t, c.OK())

	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{}).Check(c))
	assert.Contains(t, buf.String(), "work.yaml")
	assert.Contains(t, buf.String(), "invalid timeout")
	assert.Contains(t, buf.String(), "2 problem(s) found")

	buf.Reset()
	require.NoError(t, New(&buf, Options{Format: FormatYAML}).Check(NewCheck(nil, nil)))
	assert.Contains(t, buf.String(), "ok: true")
}

func TestResolved_TruncatesDetailUnlessWide(t *testing.T) {
	server := component.Component{
		Identity: component.Identity{Type: component.TypeMCP, Name: "search"},
		Path:     "/registry/mcp/search.yaml",
		Server:   &component.ServerDescriptor{Command: "npx", Args: []string{"-y", "@acme/search-server", "--index", "/very/long/path/to/an/index/directory"}},
	}
	rs := &resolver.ResolvedSet{
		Dir:   "/work",
		Types: map[component.Type][]resolver.Entry{component.TypeMCP: {{Component: server}}},
	}
	v := NewResolved(rs, []string{"claude"})

	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{}).Resolved(v))
	assert.Contains(t, buf.String(), "...")
	assert.NotContains(t, buf.String(), "index/directory")

	buf.Reset()
	require.NoError(t, New(&buf, Options{Format: FormatWide}).Resolved(v))
	assert.Contains(t, buf.String(), "/very/long/path/to/an/index/directory")
}
