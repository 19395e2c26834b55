package reconciler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hawk/internal/adapter"
	"hawk/internal/fragment"
	"hawk/internal/report"
)

// env is a store and a claude-like destination below one temp dir.
type env struct {
	t      *testing.T
	store  string
	root   string
	engine *Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	base := t.TempDir()
	e := &env{
		t:     t,
		store: filepath.Join(base, "registry"),
		root:  filepath.Join(base, "dest", ".claude"),
	}
	e.write(filepath.Join(e.store, "skills", "tidy", "SKILL.md"), "# tidy\n")
	e.write(filepath.Join(e.store, "skills", "style.md"), "# style\n")
	e.write(filepath.Join(e.store, "prompts", "review.md"), "Review this.\n")
	e.write(filepath.Join(e.store, "packages", "acme", "prompts", "deploy.md"), "Deploy.\n")
	e.write(filepath.Join(e.store, "hooks", "guard.sh"), "#!/bin/sh\nexit 0\n")
	e.engine = NewEngine(e.store, NewSyncMetrics())
	return e
}

func (e *env) write(path, content string) {
	e.t.Helper()
	require.NoError(e.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0644))
}

func (e *env) settings() string { return filepath.Join(e.root, "settings.json") }

func (e *env) link(rel, src string) adapter.DesiredArtifact {
	return adapter.DesiredArtifact{
		Kind:   adapter.KindLink,
		Path:   filepath.Join(e.root, rel),
		Source: filepath.Join(e.store, src),
	}
}

func (e *env) server(name, command string) adapter.DesiredArtifact {
	return adapter.DesiredArtifact{
		Kind:     adapter.KindFragment,
		Document: e.settings(),
		Section:  "mcpServers",
		Key:      name,
		Value:    map[string]any{"command": command},
	}
}

func (e *env) plan(artifacts ...adapter.DesiredArtifact) *adapter.Plan {
	return &adapter.Plan{
		Tool:      "claude",
		Target:    adapter.Target{Tool: "claude", Scope: adapter.ScopeGlobal, Root: e.root, StoreRoot: e.store},
		Artifacts: artifacts,
		Documents: []adapter.DocumentSpec{{
			Path:    e.settings(),
			Format:  fragment.FormatJSON,
			HookDir: filepath.Join(e.root, "hooks", "hawk"),
		}},
		Scan: []string{
			filepath.Join(e.root, "skills"),
			filepath.Join(e.root, "commands"),
			filepath.Join(e.root, "hooks", "hawk"),
		},
	}
}

func (e *env) sync(p *adapter.Plan, opts Options) ToolResult {
	return e.engine.SyncTool(context.Background(), p, opts)
}

func (e *env) fullPlan() *adapter.Plan {
	return e.plan(
		e.link("skills/tidy", "skills/tidy"),
		e.link("commands/review.md", "prompts/review.md"),
		e.link("hooks/hawk/guard.sh", "hooks/guard.sh"),
		adapter.DesiredArtifact{
			Kind:    adapter.KindBridge,
			Path:    filepath.Join(e.root, "hooks", "hawk", "notify.sh"),
			Content: []byte("#!/bin/sh\n# hawk-managed: generated\nexit 0\n"),
			Mode:    0755,
		},
		e.server("github", "gh-mcp"),
	)
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestSyncTool_CreatesThenIsIdempotent(t *testing.T) {
	e := newEnv(t)

	first := e.sync(e.fullPlan(), Options{})
	require.NoError(t, first.Err)
	assert.Equal(t, 5, first.Counts.Created)
	assert.Zero(t, first.Counts.Conflicts)

	target, err := os.Readlink(filepath.Join(e.root, "skills", "tidy"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.store, "skills", "tidy"), target)

	fi, err := os.Stat(filepath.Join(e.root, "hooks", "hawk", "notify.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), fi.Mode().Perm())

	servers := readJSON(t, e.settings())["mcpServers"].(map[string]any)
	assert.Equal(t, map[string]any{"command": "gh-mcp"}, servers["github"])

	before, err := os.ReadFile(e.settings())
	require.NoError(t, err)

	second := e.sync(e.fullPlan(), Options{})
	require.NoError(t, second.Err)
	assert.Zero(t, second.Counts.Changes())
	assert.Equal(t, 5, second.Counts.Unchanged)

	after, err := os.ReadFile(e.settings())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSyncTool_LeavesUnmanagedEntriesAlone(t *testing.T) {
	e := newEnv(t)
	userCommand := filepath.Join(e.root, "commands", "review.md")
	e.write(userCommand, "my own review command\n")
	e.write(e.settings(), `{"mcpServers": {"github": {"command": "my-github"}}, "theme": "dark"}`)

	res := e.sync(e.fullPlan(), Options{})

	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Counts.Conflicts)
	assert.Equal(t, 3, res.Counts.Created)

	data, err := os.ReadFile(userCommand)
	require.NoError(t, err)
	assert.Equal(t, "my own review command\n", string(data))

	doc := readJSON(t, e.settings())
	assert.Equal(t, "dark", doc["theme"])
	assert.Equal(t, map[string]any{"command": "my-github"}, doc["mcpServers"].(map[string]any)["github"])

	var conflicts int
	for _, w := range res.Warnings {
		if w.Code == report.CodeConflict {
			conflicts++
		}
	}
	assert.Equal(t, 2, conflicts)
}

func TestSyncTool_ReplacesStaleLink(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.root, "skills", "tidy")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.Symlink(filepath.Join(e.store, "skills", "style.md"), path))

	res := e.sync(e.plan(e.link("skills/tidy", "skills/tidy")), Options{})

	assert.Equal(t, 1, res.Counts.Updated)
	target, err := os.Readlink(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.store, "skills", "tidy"), target)
}

func TestSyncTool_ForeignSymlinkIsAConflict(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.root, "skills", "tidy")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.Symlink("/somewhere/else", path))

	res := e.sync(e.plan(e.link("skills/tidy", "skills/tidy")), Options{})

	assert.Equal(t, 1, res.Counts.Conflicts)
	target, err := os.Readlink(path)
	require.NoError(t, err)
	assert.Equal(t, "/somewhere/else", target)
}

func TestSyncTool_RemovesOrphansAndPrunes(t *testing.T) {
	e := newEnv(t)
	initial := e.plan(
		e.link("commands/acme/deploy.md", "packages/acme/prompts/deploy.md"),
		e.link("commands/review.md", "prompts/review.md"),
		e.server("github", "gh-mcp"),
	)
	require.Equal(t, 3, e.sync(initial, Options{}).Counts.Created)

	userFile := filepath.Join(e.root, "hooks", "hawk", "mine.sh")
	e.write(userFile, "#!/bin/sh\n")

	res := e.sync(e.plan(e.link("commands/review.md", "prompts/review.md")), Options{})

	assert.Equal(t, 2, res.Counts.Removed)
	assert.Equal(t, 1, res.Counts.Unchanged)
	assert.NoDirExists(t, filepath.Join(e.root, "commands", "acme"))
	assert.DirExists(t, filepath.Join(e.root, "commands"))
	assert.FileExists(t, userFile)

	doc := readJSON(t, e.settings())
	assert.NotContains(t, doc, "mcpServers")
}

func TestSyncTool_ReplacedLayoutIsNotShadowed(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, 1, e.sync(e.plan(e.link("skills/tidy", "skills/tidy")), Options{}).Counts.Created)

	// The skill is now a single file wrapped in a directory of the same name.
	next := e.plan(e.link("skills/tidy/SKILL.md", "skills/style.md"))

	dry := e.sync(next, Options{DryRun: true})
	assert.Equal(t, 1, dry.Counts.Removed)
	assert.Equal(t, 1, dry.Counts.Created)
	assert.Zero(t, dry.Counts.Conflicts)

	res := e.sync(next, Options{})
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Counts.Removed)
	assert.Equal(t, 1, res.Counts.Created)

	fi, err := os.Lstat(filepath.Join(e.root, "skills", "tidy"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	target, err := os.Readlink(filepath.Join(e.root, "skills", "tidy", "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.store, "skills", "style.md"), target)
}

func TestSyncTool_DryRunWritesNothing(t *testing.T) {
	e := newEnv(t)

	res := e.sync(e.fullPlan(), Options{DryRun: true, Verbose: true})

	require.NoError(t, res.Err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 5, res.Counts.Created)
	assert.NoDirExists(t, e.root)
	require.Len(t, res.Artifacts, 5)

	var diffs int
	for _, a := range res.Artifacts {
		if a.Diff != "" {
			diffs++
		}
		if a.Kind == adapter.KindBridge {
			assert.Contains(t, a.Diff, "+# hawk-managed: generated")
		}
	}
	// One for the generated script and one for the settings document.
	assert.Equal(t, 2, diffs)
}

func TestSyncTool_MalformedDocumentFailsTheTool(t *testing.T) {
	e := newEnv(t)
	e.write(e.settings(), "{not json")

	res := e.sync(e.fullPlan(), Options{})

	require.Error(t, res.Err)
	assert.True(t, res.Failed())
	assert.Equal(t, 1, res.Counts.Failed)
	assert.Equal(t, 4, res.Counts.Created)

	data, err := os.ReadFile(e.settings())
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestSyncTool_RewritesModifiedGeneratedFile(t *testing.T) {
	e := newEnv(t)
	p := e.fullPlan()
	require.NoError(t, e.sync(p, Options{}).Err)

	script := filepath.Join(e.root, "hooks", "hawk", "notify.sh")
	e.write(script, "#!/bin/sh\n# hawk-managed: generated\necho edited\n")

	res := e.sync(p, Options{})
	assert.Equal(t, 1, res.Counts.Updated)
	data, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "edited")
}

func TestSyncTool_ScansThroughSymlinkedRoot(t *testing.T) {
	e := newEnv(t)
	realDir := filepath.Join(filepath.Dir(e.root), "real-commands")
	require.NoError(t, os.MkdirAll(realDir, 0755))
	require.NoError(t, os.MkdirAll(e.root, 0755))
	require.NoError(t, os.Symlink(realDir, filepath.Join(e.root, "commands")))
	require.NoError(t, os.Symlink(filepath.Join(e.store, "prompts", "review.md"), filepath.Join(realDir, "old.md")))

	res := e.sync(e.plan(), Options{})

	assert.Equal(t, 1, res.Counts.Removed)
	_, err := os.Lstat(filepath.Join(realDir, "old.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestWithin(t *testing.T) {
	tests := []struct {
		root, path string
		want       bool
	}{
		{"/a/b", "/a/b", true},
		{"/a/b", "/a/b/c", true},
		{"/a/b", "/a/bc", false},
		{"/a/b", "/a", false},
		{"/a/b", "/x/y", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, within(tt.root, tt.path), "%s in %s", tt.path, tt.root)
	}
}

func TestSyncTool_StopsWritingAfterAbandonedWrite(t *testing.T) {
	e := newEnv(t)

	release := make(chan struct{})
	finished := make(chan struct{})
	var (
		mu    sync.Mutex
		calls []string
	)
	orig := linkArtifact
	linkArtifact = func(source, path string) error {
		mu.Lock()
		calls = append(calls, path)
		first := len(calls) == 1
		mu.Unlock()
		if !first {
			return orig(source, path)
		}
		defer close(finished)
		<-release
		return orig(source, path)
	}
	t.Cleanup(func() { linkArtifact = orig })

	plan := func() *adapter.Plan {
		return e.plan(
			e.link("skills/tidy", "skills/tidy"),
			e.link("commands/review.md", "prompts/review.md"),
			e.server("github", "gh-mcp"),
		)
	}

	res := e.sync(plan(), Options{Timeout: 20 * time.Millisecond})
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, errAbandoned)
	assert.True(t, res.Failed())
	assert.Equal(t, 3, res.Counts.Failed)
	mu.Lock()
	assert.Len(t, calls, 1, "no write may start while one is still running")
	mu.Unlock()
	assert.NoFileExists(t, e.settings())

	close(release)
	<-finished

	again := e.sync(plan(), Options{})
	require.NoError(t, again.Err)
	assert.Equal(t, 2, again.Counts.Created)
	assert.Equal(t, 1, again.Counts.Unchanged)
}
