package reconciler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hawk/internal/adapter"
	"hawk/internal/component"
	"hawk/internal/config"
	"hawk/internal/report"
	"hawk/internal/resolver"
)

// harness is a hawk home with a populated store and a fake user home.
type harness struct {
	t        *testing.T
	base     string
	home     string
	hawkHome string
	work     string
	cache    *SyncCache
	metrics  *SyncMetrics
	mgr      *Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	base := t.TempDir()
	h := &harness{
		t:        t,
		base:     base,
		home:     filepath.Join(base, "home"),
		hawkHome: filepath.Join(base, "home", ".config", "hawk"),
		work:     filepath.Join(base, "work"),
	}
	t.Setenv("HOME", h.home)
	require.NoError(t, os.MkdirAll(h.work, 0755))

	registry := config.RegistryPath(h.hawkHome)
	writeFile(t, filepath.Join(registry, "prompts", "commit-message.md"), "Write a commit message.\n", 0644)
	writeFile(t, filepath.Join(registry, "hooks", "block-secrets.sh"),
		"#!/bin/sh\n# hawk-hook: events=pre_tool_use matcher=Bash blocking=true\nexit 0\n", 0755)

	h.cache = NewSyncCache(h.hawkHome)
	h.metrics = NewSyncMetrics()
	h.mgr = NewManager(ManagerConfig{
		Loader:   config.NewLoader(h.hawkHome),
		Resolver: resolver.New(component.NewFSStore(registry), resolver.NewCache(8)),
		Cache:    h.cache,
		Metrics:  h.metrics,
	})
	return h
}

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

func (h *harness) global(doc string) {
	writeFile(h.t, config.GlobalPath(h.hawkHome), doc, 0644)
}

func (h *harness) sync(req SyncRequest) *SyncResult {
	h.t.Helper()
	if req.Dir == "" {
		req.Dir = h.work
	}
	res, err := h.mgr.Sync(context.Background(), req)
	require.NoError(h.t, err)
	return res
}

func (h *harness) claudeRoot() string { return filepath.Join(h.home, ".claude") }

func hasCode(ws []report.Warning, code report.Code) bool {
	for _, w := range ws {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestManager_SyncsGlobalScope(t *testing.T) {
	h := newHarness(t)
	h.global("prompts: [commit-message]\nhooks: [block-secrets]\n")

	res := h.sync(SyncRequest{Tools: []string{"claude"}})

	require.Len(t, res.Tools, 1)
	tr := res.Tools[0]
	require.NoError(t, tr.Err)
	assert.Equal(t, adapter.ScopeGlobal, tr.Scope)
	assert.Equal(t, h.claudeRoot(), tr.Root)
	assert.Equal(t, 3, tr.Counts.Created)
	assert.Equal(t, StatusSuccess, res.ExitStatus())
	assert.NotEmpty(t, res.RunID)

	target, err := os.Readlink(filepath.Join(h.claudeRoot(), "commands", "commit-message.md"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(config.RegistryPath(h.hawkHome), "prompts", "commit-message.md"), target)

	hook := filepath.Join(h.claudeRoot(), "hooks", "hawk", "block-secrets.sh")
	settings := readJSON(t, filepath.Join(h.claudeRoot(), "settings.json"))
	groups := settings["hooks"].(map[string]any)["PreToolUse"].([]any)
	require.Len(t, groups, 1)
	assert.Equal(t, "Bash", groups[0].(map[string]any)["matcher"])
	assert.Contains(t, groups[0].(map[string]any)["hooks"].([]any)[0].(map[string]any)["command"], hook)
}

func TestManager_SecondRunIsCached(t *testing.T) {
	h := newHarness(t)
	h.global("prompts: [commit-message]\n")

	first := h.sync(SyncRequest{Tools: []string{"claude"}})
	require.False(t, first.Tools[0].Cached)

	second := h.sync(SyncRequest{Tools: []string{"claude"}})
	assert.True(t, second.Tools[0].Cached)
	assert.True(t, second.Tools[0].UpToDate)
	assert.Zero(t, second.Tools[0].Counts.Changes())

	forced := h.sync(SyncRequest{Tools: []string{"claude"}, Force: true})
	assert.False(t, forced.Tools[0].Cached)
	assert.True(t, forced.Tools[0].UpToDate)
	assert.Zero(t, forced.Tools[0].Counts.Changes())

	entries, err := h.cache.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "claude", entries[0].Tool)
	assert.Equal(t, h.work, entries[0].Directory)

	summary := h.metrics.Summary()
	assert.Equal(t, int64(3), summary.TotalRuns)
	assert.Equal(t, int64(1), summary.TotalCacheHits)
}

func TestManager_TamperedOutputMissesCache(t *testing.T) {
	h := newHarness(t)
	h.global("prompts: [commit-message]\n")
	h.sync(SyncRequest{Tools: []string{"claude"}})

	require.NoError(t, os.Remove(filepath.Join(h.claudeRoot(), "commands", "commit-message.md")))

	res := h.sync(SyncRequest{Tools: []string{"claude"}})
	assert.False(t, res.Tools[0].Cached)
	assert.Equal(t, 1, res.Tools[0].Counts.Created)
}

func TestManager_DeletedSourceIsRemoved(t *testing.T) {
	h := newHarness(t)
	h.global("prompts: [commit-message]\n")
	h.sync(SyncRequest{Tools: []string{"claude"}})

	require.NoError(t, os.Remove(filepath.Join(config.RegistryPath(h.hawkHome), "prompts", "commit-message.md")))

	res := h.sync(SyncRequest{Tools: []string{"claude"}})
	assert.True(t, hasCode(res.Warnings, report.CodeUnresolvable))
	assert.Equal(t, 1, res.Tools[0].Counts.Removed)
	assert.Equal(t, StatusWarnings, res.ExitStatus())

	_, err := os.Lstat(filepath.Join(h.claudeRoot(), "commands", "commit-message.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestManager_NearestRegisteredDirectory(t *testing.T) {
	h := newHarness(t)
	repo := filepath.Join(h.base, "repo")
	sub := filepath.Join(repo, "pkg", "sub")
	require.NoError(t, os.MkdirAll(sub, 0755))
	h.global("directories: [" + repo + "]\nhooks: [block-secrets]\n")
	writeFile(t, config.DirectoryLayerPath(repo),
		"hooks:\n  disabled: [block-secrets]\nprompts: [commit-message]\n", 0644)

	res := h.sync(SyncRequest{Dir: sub, Tools: []string{"claude"}})

	tr := res.Tools[0]
	assert.Equal(t, adapter.ScopeProject, tr.Scope)
	assert.Equal(t, filepath.Join(repo, ".claude"), tr.Root)
	assert.FileExists(t, filepath.Join(repo, ".claude", "commands", "commit-message.md"))
	assert.NoFileExists(t, filepath.Join(repo, ".claude", "hooks", "hawk", "block-secrets.sh"))
	assert.NoDirExists(t, h.claudeRoot())
}

func TestManager_UnsupportedEventIsNotWired(t *testing.T) {
	h := newHarness(t)
	h.global("hooks: [block-secrets]\n")

	res := h.sync(SyncRequest{Tools: []string{"codex"}})

	tr := res.Tools[0]
	require.NoError(t, tr.Err)
	assert.Equal(t, 1, tr.Counts.Unsupported)
	assert.Zero(t, tr.Counts.Changes())
	assert.True(t, hasCode(tr.Warnings, report.CodeUnsupported))
	assert.NoFileExists(t, filepath.Join(h.home, ".codex", "hooks", "hawk", "block-secrets.sh"))
	assert.NoFileExists(t, filepath.Join(h.home, ".codex", "config.toml"))
	assert.Equal(t, StatusWarnings, res.ExitStatus())
}

func TestManager_ToolSelection(t *testing.T) {
	h := newHarness(t)
	root := filepath.Join(h.base, "gem")
	h.global("destinations:\n  gemini:\n    enabled: false\n  codex:\n    root: " + root + "\n")

	_, err := h.mgr.Sync(context.Background(), SyncRequest{Dir: h.work, Tools: []string{"vim"}})
	require.Error(t, err)

	res := h.sync(SyncRequest{Tools: []string{"gemini"}})
	assert.Empty(t, res.Tools)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, report.CodeDisabled, res.Warnings[0].Code)
	assert.Equal(t, "gemini", res.Warnings[0].Subject)

	all := h.sync(SyncRequest{})
	var tools []string
	for _, tr := range all.Tools {
		tools = append(tools, tr.Tool)
		if tr.Tool == "codex" {
			assert.Equal(t, root, tr.Root)
		}
	}
	assert.Equal(t, []string{"claude", "codex"}, tools)
}

func TestManager_WorkersBoundParallelTools(t *testing.T) {
	h := newHarness(t)
	h.global("sync: {workers: 1}\nprompts: [commit-message]\n")

	var mu sync.Mutex
	var inFlight, peak, calls int
	track := func() func() {
		mu.Lock()
		inFlight++
		calls++
		peak = max(peak, inFlight)
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		return func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		}
	}
	origLink, origWrite := linkArtifact, writeArtifact
	t.Cleanup(func() { linkArtifact, writeArtifact = origLink, origWrite })
	linkArtifact = func(source, path string) error {
		defer track()()
		return origLink(source, path)
	}
	writeArtifact = func(path string, content []byte, mode os.FileMode) error {
		defer track()()
		return origWrite(path, content, mode)
	}

	res := h.sync(SyncRequest{})

	require.Len(t, res.Tools, 3)
	for _, tr := range res.Tools {
		require.NoError(t, tr.Err, tr.Tool)
	}
	assert.GreaterOrEqual(t, calls, 3)
	assert.Equal(t, 1, peak)
}

func TestManager_DryRunAndConflictsAreNotCached(t *testing.T) {
	h := newHarness(t)
	h.global("prompts: [commit-message]\n")

	dry := h.sync(SyncRequest{Tools: []string{"claude"}, DryRun: true})
	assert.Equal(t, 1, dry.Tools[0].Counts.Created)
	assert.NoDirExists(t, h.claudeRoot())

	writeFile(t, filepath.Join(h.claudeRoot(), "commands", "commit-message.md"), "mine\n", 0644)
	res := h.sync(SyncRequest{Tools: []string{"claude"}})
	assert.Equal(t, 1, res.Tools[0].Counts.Conflicts)
	assert.Equal(t, StatusWarnings, res.ExitStatus())

	entries, err := h.cache.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// fakeDetector hands the change channel to the test.
type fakeDetector struct {
	paths   []string
	started chan chan<- ChangeEvent
	stopped bool
}

func (f *fakeDetector) Start(_ context.Context, changes chan<- ChangeEvent) error {
	f.started <- changes
	return nil
}

func (f *fakeDetector) Stop() error {
	f.stopped = true
	return nil
}

func (f *fakeDetector) AddPath(path string) error {
	f.paths = append(f.paths, path)
	return nil
}

func TestManager_WatchResyncsOnChange(t *testing.T) {
	h := newHarness(t)
	h.global("prompts: [commit-message]\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	det := &fakeDetector{started: make(chan chan<- ChangeEvent, 1)}
	results := make(chan *SyncResult, 4)
	done := make(chan error, 1)
	go func() {
		done <- h.mgr.Watch(ctx, SyncRequest{Dir: h.work, Tools: []string{"claude"}}, det,
			func(r *SyncResult, err error) {
				assert.NoError(t, err)
				results <- r
			})
	}()

	first := <-results
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Tools[0].Counts.Created)

	changes := <-det.started
	changes <- ChangeEvent{Path: config.GlobalPath(h.hawkHome), Operation: OperationUpdate}

	second := <-results
	require.NotNil(t, second)
	assert.True(t, second.Tools[0].Cached)

	cancel()
	require.NoError(t, <-done)
	assert.True(t, det.stopped)
	assert.Equal(t, []string{h.hawkHome}, det.paths)
}

type countingLocker struct {
	locks, unlocks int
	err            error
}

func (l *countingLocker) Lock(context.Context) error {
	if l.err != nil {
		return l.err
	}
	l.locks++
	return nil
}

func (l *countingLocker) Unlock() error {
	l.unlocks++
	return nil
}

func TestManager_HoldsLockerForEachRun(t *testing.T) {
	h := newHarness(t)
	h.global("prompts: [commit-message]\n")
	locker := &countingLocker{}
	h.mgr.locker = locker

	h.sync(SyncRequest{Tools: []string{"claude"}})
	h.sync(SyncRequest{Tools: []string{"claude"}})
	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, 2, locker.unlocks)

	busy := errors.New("held elsewhere")
	h.mgr.locker = &countingLocker{err: busy}
	_, err := h.mgr.Sync(context.Background(), SyncRequest{Dir: h.work})
	assert.ErrorIs(t, err, busy)
}
