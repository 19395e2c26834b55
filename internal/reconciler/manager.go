package reconciler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hawk/internal/adapter"
	"hawk/internal/config"
	"hawk/internal/report"
	"hawk/internal/resolver"
	"hawk/pkg/logging"
)

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	Loader   *config.Loader
	Resolver *resolver.Resolver
	// Adapters defaults to adapter.Default().
	Adapters *adapter.Registry
	// Cache may be nil, which disables persisted up-to-date checks.
	Cache *SyncCache
	// Metrics defaults to the process-wide instance.
	Metrics *SyncMetrics
	// Locker, when set, is held for the whole of each run.
	Locker Locker
}

// Locker serialises runs that may touch the same destinations.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock() error
}

// Manager coordinates one sync run: it loads layers, resolves once and runs
// one worker per destination tool.
type Manager struct {
	loader   *config.Loader
	resolver *resolver.Resolver
	adapters *adapter.Registry
	cache    *SyncCache
	metrics  *SyncMetrics
	locker   Locker
	engine   *Engine
}

// NewManager creates a new sync manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Adapters == nil {
		cfg.Adapters = adapter.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = GetSyncMetrics()
	}
	return &Manager{
		loader:   cfg.Loader,
		resolver: cfg.Resolver,
		adapters: cfg.Adapters,
		cache:    cfg.Cache,
		metrics:  cfg.Metrics,
		locker:   cfg.Locker,
		engine:   NewEngine(cfg.Resolver.Store().Root(), cfg.Metrics),
	}
}

// Metrics returns the metrics the manager records into.
func (m *Manager) Metrics() *SyncMetrics { return m.metrics }

// job is the per-tool unit of work of a run.
type job struct {
	tool        string
	target      adapter.Target
	fingerprint string
	hit         *CacheEntry
}

// Sync runs one pass for req.Dir. A returned error means nothing was attempted
// (unknown tool, malformed layer, unreadable store); per-tool failures are
// reported in the result.
func (m *Manager) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	if m.locker != nil {
		if err := m.locker.Lock(ctx); err != nil {
			return nil, err
		}
		defer func() {
			if err := m.locker.Unlock(); err != nil {
				logging.Warn("SyncManager", "Failed to release lock: %v", err)
			}
		}()
	}

	start := time.Now()
	result := &SyncResult{RunID: uuid.NewString(), Dir: req.Dir, StartedAt: start}

	layers, err := m.loader.Load(ctx, req.Dir)
	if err != nil {
		return nil, err
	}
	tools, skipped, err := m.selectTools(layers.Global, req.Tools)
	if err != nil {
		return nil, err
	}

	mapping, err := m.resolver.Store().Mapping(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read component store: %w", err)
	}
	hash := resolver.InputHash(layers, mapping)

	jobs := make([]job, 0, len(tools))
	resolve := false
	for _, tool := range tools {
		target, err := Target(layers, tool, m.resolver.Store().Root())
		if err != nil {
			return nil, err
		}
		j := job{tool: tool, target: target, fingerprint: SyncFingerprint(hash, tool, target.Root)}
		if !req.Force && m.cache != nil {
			if e, ok := m.cache.Load(req.Dir, tool); ok && e.Hash == j.fingerprint && e.Verify() {
				j.hit = e
			}
		}
		if j.hit == nil {
			resolve = true
		}
		jobs = append(jobs, j)
	}

	var set *resolver.ResolvedSet
	var shared []report.Warning
	if resolve {
		set, err = m.resolver.Resolve(ctx, layers)
		if err != nil {
			return nil, err
		}
		shared = set.Warnings
	} else if len(jobs) > 0 {
		shared = jobs[0].hit.Shared
	}
	result.Warnings = append(append(result.Warnings, skipped...), shared...)

	opts := Options{
		DryRun:  req.DryRun,
		Verbose: req.Verbose,
		Force:   req.Force,
		Timeout: layers.Global.SyncTimeout(),
	}
	result.Tools = make([]ToolResult, len(jobs))
	if len(jobs) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(layers.Global.SyncWorkers(len(jobs)))
		for i, j := range jobs {
			g.Go(func() error {
				result.Tools[i] = m.syncTool(gctx, set, j, req.Dir, opts, shared)
				return nil
			})
		}
		_ = g.Wait()
	}

	result.Duration = time.Since(start)
	logging.Info("SyncManager", "Run %s for %s finished in %s: %s",
		result.RunID, req.Dir, result.Duration.Round(time.Millisecond), result.ExitStatus())
	return result, nil
}

func (m *Manager) syncTool(ctx context.Context, set *resolver.ResolvedSet, j job, dir string, opts Options, shared []report.Warning) ToolResult {
	if j.hit != nil {
		m.metrics.RecordCacheHit(j.tool)
		res := ToolResult{
			Tool:     j.tool,
			Scope:    j.target.Scope,
			Root:     j.target.Root,
			UpToDate: true,
			Cached:   true,
			DryRun:   opts.DryRun,
			Warnings: j.hit.Warnings,
		}
		for _, w := range j.hit.Warnings {
			if w.Code == report.CodeUnsupported {
				res.Counts.Unsupported++
			}
		}
		return res
	}

	a, err := m.adapters.Get(j.tool)
	if err == nil {
		var plan *adapter.Plan
		plan, err = a.Materialize(set.ForTool(j.tool), j.target)
		if err == nil {
			return m.apply(ctx, plan, j, dir, opts, shared)
		}
	}
	res := ToolResult{Tool: j.tool, Scope: j.target.Scope, Root: j.target.Root, DryRun: opts.DryRun}
	res.fail(fmt.Errorf("failed to plan %s: %w", j.tool, err))
	m.metrics.RecordRun(&res)
	return res
}

func (m *Manager) apply(ctx context.Context, plan *adapter.Plan, j job, dir string, opts Options, shared []report.Warning) ToolResult {
	res := m.engine.SyncTool(ctx, plan, opts)
	res.UpToDate = res.Counts.Changes() == 0 && res.Counts.Conflicts == 0 && !res.Failed()

	if opts.DryRun || m.cache == nil {
		return res
	}
	if res.Failed() || res.Counts.Conflicts > 0 {
		if err := m.cache.Invalidate(dir, j.tool); err != nil {
			logging.Warn("SyncManager", "Failed to drop cache entry for %s (%s): %v", dir, j.tool, err)
		}
		return res
	}
	entry, err := newCacheEntry(dir, j.fingerprint, plan, res.Warnings, shared)
	if err == nil {
		err = m.cache.Store(entry)
	}
	if err != nil {
		logging.Warn("SyncManager", "Failed to record cache entry for %s (%s): %v", dir, j.tool, err)
	}
	return res
}

// selectTools returns the tools of a run, sorted. Without an explicit request
// every enabled destination is synced; requested but disabled destinations
// are skipped with a warning.
func (m *Manager) selectTools(global *config.GlobalConfig, requested []string) ([]string, []report.Warning, error) {
	if len(requested) == 0 {
		var tools []string
		for _, name := range m.adapters.Names() {
			if global.DestinationEnabled(name) {
				tools = append(tools, name)
			}
		}
		return tools, nil, nil
	}

	var (
		tools    []string
		warnings []report.Warning
		seen     = map[string]bool{}
	)
	for _, name := range requested {
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, err := m.adapters.Get(name); err != nil {
			return nil, nil, err
		}
		if !global.DestinationEnabled(name) {
			warnings = append(warnings, report.Newf(report.CodeDisabled, name, name,
				"destination %s is disabled in the global config; skipped", name))
			continue
		}
		tools = append(tools, name)
	}
	sort.Strings(tools)
	return tools, warnings, nil
}

// Target computes where tool's artifacts go for layers.Dir: below the nearest
// registered directory when there is one, else the tool's global root.
func Target(layers *config.LayerSet, tool, storeRoot string) (adapter.Target, error) {
	home, err := config.UserHome()
	if err != nil {
		return adapter.Target{}, fmt.Errorf("could not determine user home directory: %w", err)
	}
	t := adapter.Target{Tool: tool, Home: home, StoreRoot: storeRoot, Dir: layers.Dir}

	if dir := layers.Nearest(); dir != "" {
		t.Scope = adapter.ScopeProject
		t.Dir = dir
		t.Root = filepath.Join(dir, "."+tool)
		return t, nil
	}
	root, err := layers.Global.DestinationRoot(tool)
	if err != nil {
		return adapter.Target{}, err
	}
	t.Scope = adapter.ScopeGlobal
	t.Root = root
	return t, nil
}

// WatchPaths lists what a watch on dir observes: the hawk home, which holds
// the global config, profiles and registry, and every existing .hawk
// directory of the registered chain.
func (m *Manager) WatchPaths(ctx context.Context, dir string) ([]string, error) {
	layers, err := m.loader.Load(ctx, dir)
	if err != nil {
		return nil, err
	}
	paths := []string{m.loader.Home()}
	for _, d := range layers.Chain {
		layerDir := filepath.Dir(config.DirectoryLayerPath(d))
		if fi, err := os.Stat(layerDir); err == nil && fi.IsDir() {
			paths = append(paths, layerDir)
		}
	}
	return paths, nil
}

// Watch syncs req once and again after every detected change until ctx is
// done. Each outcome is passed to onResult.
func (m *Manager) Watch(ctx context.Context, req SyncRequest, detector ChangeDetector, onResult func(*SyncResult, error)) error {
	paths, err := m.WatchPaths(ctx, req.Dir)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := detector.AddPath(p); err != nil {
			logging.Warn("SyncManager", "Failed to watch %s: %v", p, err)
		}
	}

	changes := make(chan ChangeEvent, 64)
	if err := detector.Start(ctx, changes); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer detector.Stop()

	onResult(m.Sync(ctx, req))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-changes:
			logging.Info("SyncManager", "%s %s; syncing %s", ev.Operation, ev.Path, req.Dir)
			drain(changes)
			onResult(m.Sync(ctx, req))
		}
	}
}

// drain discards queued events; one sync covers them all.
func drain(changes <-chan ChangeEvent) {
	for {
		select {
		case <-changes:
		default:
			return
		}
	}
}
