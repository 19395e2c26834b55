package reconciler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"hawk/internal/adapter"
	"hawk/internal/fragment"
	"hawk/internal/report"
	"hawk/pkg/logging"
)

// Engine converges one tool's destination tree to a plan.
//
// An entry is hawk-managed when it is a symlink pointing into the store root
// or a regular file carrying the generated-file marker. Anything else found at
// a desired path is a conflict and is left untouched.
type Engine struct {
	storeRoot string
	metrics   *SyncMetrics
}

// NewEngine creates an engine for the store rooted at storeRoot. metrics may be nil.
func NewEngine(storeRoot string, metrics *SyncMetrics) *Engine {
	if metrics == nil {
		metrics = GetSyncMetrics()
	}
	return &Engine{storeRoot: filepath.Clean(storeRoot), metrics: metrics}
}

// managed is an existing hawk-owned entry found by a scan.
type managed struct {
	path string
	root string
	link bool
}

func (m managed) kind() adapter.Kind {
	if m.link {
		return adapter.KindLink
	}
	return adapter.KindBridge
}

// pass is the state of one SyncTool call.
type pass struct {
	engine  *Engine
	plan    *adapter.Plan
	opts    Options
	res     *ToolResult
	removed []managed
	// stalled is set once a write was abandoned; no further writes are issued.
	stalled error
}

// apply runs one write under the artifact timeout. Once a write has been
// abandoned every later write of the pass is refused, since the abandoned one
// may still be changing the tree. The tool is then failed; a re-run converges.
func (p *pass) apply(ctx context.Context, write func() error) error {
	if p.stalled != nil {
		return p.stalled
	}
	err := withTimeout(ctx, p.opts.timeout(), write)
	if errors.Is(err, errAbandoned) {
		p.stalled = fmt.Errorf("not written, an earlier write is still running: %w", err)
		p.res.fail(err)
	}
	return err
}

// SyncTool converges plan.Target to plan. Orphans are removed first so that a
// replaced layout never shadows a desired path; links and generated files are
// then written one by one, and fragment documents are rewritten once each.
// Artifact failures are counted in the result and never stop the pass.
func (e *Engine) SyncTool(ctx context.Context, plan *adapter.Plan, opts Options) ToolResult {
	res := ToolResult{
		Tool:   plan.Tool,
		Scope:  plan.Target.Scope,
		Root:   plan.Target.Root,
		DryRun: opts.DryRun,
	}
	res.Warnings = append(res.Warnings, plan.Warnings...)
	for _, w := range plan.Warnings {
		if w.Code == report.CodeUnsupported {
			res.Counts.Unsupported++
		}
	}

	p := &pass{engine: e, plan: plan, opts: opts, res: &res}
	p.run(ctx)

	e.metrics.RecordRun(&res)
	logging.Debug("SyncEngine", "%s: %d created, %d updated, %d removed, %d conflicts, %d failed",
		plan.Tool, res.Counts.Created, res.Counts.Updated, res.Counts.Removed, res.Counts.Conflicts, res.Counts.Failed)
	return res
}

func (p *pass) run(ctx context.Context) {
	actual, err := p.engine.scan(ctx, p.plan.Scan)
	if err != nil {
		p.res.fail(err)
		return
	}

	desired := make(map[string]bool, len(p.plan.Artifacts))
	for _, a := range p.plan.Artifacts {
		if a.Kind != adapter.KindFragment {
			desired[a.Path] = true
		}
	}
	var orphans []string
	for path := range actual {
		if !desired[path] {
			orphans = append(orphans, path)
		}
	}
	sort.Strings(orphans)
	for _, path := range orphans {
		if err := ctx.Err(); err != nil {
			p.res.fail(err)
			return
		}
		p.removeOrphan(ctx, actual[path])
	}

	for _, a := range p.plan.Artifacts {
		if a.Kind == adapter.KindFragment {
			continue
		}
		if err := ctx.Err(); err != nil {
			p.res.fail(err)
			return
		}
		p.file(ctx, a, orphans)
	}

	for _, doc := range p.plan.Documents {
		if err := ctx.Err(); err != nil {
			p.res.fail(err)
			return
		}
		p.document(ctx, doc)
	}

	if !p.opts.DryRun && p.stalled == nil {
		p.prune()
	}
}

// record counts a settled artifact and keeps its detail in verbose mode.
func (p *pass) record(r ArtifactResult, err error) {
	if err != nil {
		r.Action = ActionFailed
		r.Error = err.Error()
		p.res.Warnings = append(p.res.Warnings,
			report.Newf(report.CodeIO, p.plan.Tool, r.ID, "%s: %v", r.ID, err))
		logging.Warn("SyncEngine", "%s: failed to %s %s: %v", p.plan.Tool, actionFor(r.State), r.ID, err)
	}
	p.res.Counts.record(r.Action)
	if r.Action == ActionSkip {
		p.res.Warnings = append(p.res.Warnings, report.Newf(report.CodeConflict, p.plan.Tool, r.ID,
			"%s exists and is not managed by hawk; left untouched", r.ID))
	}
	if p.opts.Verbose {
		p.res.Artifacts = append(p.res.Artifacts, r)
	}
}

func (p *pass) removeOrphan(ctx context.Context, m managed) {
	r := ArtifactResult{ID: m.path, Kind: m.kind(), State: StateOrphaned, Action: ActionRemove}
	if p.opts.DryRun {
		p.record(r, nil)
		return
	}
	err := p.apply(ctx, func() error {
		if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
	if err == nil {
		p.removed = append(p.removed, m)
	}
	p.record(r, err)
}

// file converges one link or generated file.
func (p *pass) file(ctx context.Context, a adapter.DesiredArtifact, orphans []string) {
	r := ArtifactResult{ID: a.ID(), Kind: a.Kind, Component: a.Component}

	state, current, err := p.engine.classify(a)
	if err != nil {
		r.State = StateAbsent
		p.record(r, err)
		return
	}
	// A dry run leaves orphans in place; paths below them are created afresh.
	if p.opts.DryRun && shadowed(a.Path, orphans) {
		state, current = StateAbsent, nil
	}
	r.State = state
	r.Action = actionFor(state)

	converge := r.Action == ActionCreate || r.Action == ActionUpdate
	if converge && p.opts.DryRun && p.opts.Verbose && a.Kind == adapter.KindBridge {
		r.Diff = contentDiff(a.Path, current, a.Content)
	}
	if !converge || p.opts.DryRun {
		p.record(r, nil)
		return
	}

	err = p.apply(ctx, func() error {
		if a.Kind == adapter.KindLink {
			return linkArtifact(a.Source, a.Path)
		}
		return writeArtifact(a.Path, a.Content, fileMode(a.Mode))
	})
	p.record(r, err)
}

// classify inspects the destination of a link or generated file. For
// generated files it also returns the current content.
func (e *Engine) classify(a adapter.DesiredArtifact) (State, []byte, error) {
	fi, err := os.Lstat(a.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return StateAbsent, nil, nil
	case errors.Is(err, syscall.ENOTDIR):
		// A foreign file occupies a parent directory.
		return StateUnmanaged, nil, nil
	case err != nil:
		return "", nil, err
	}

	if fi.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(a.Path)
		if err != nil {
			return "", nil, err
		}
		if a.Kind == adapter.KindLink && target == a.Source {
			return StateCorrect, nil, nil
		}
		if e.managedLink(a.Path, target) {
			return StateStale, nil, nil
		}
		return StateUnmanaged, nil, nil
	}
	if !fi.Mode().IsRegular() {
		return StateUnmanaged, nil, nil
	}

	current, err := os.ReadFile(a.Path)
	if err != nil {
		return "", nil, err
	}
	if a.Kind == adapter.KindBridge && bytes.Equal(current, a.Content) && fi.Mode().Perm() == fileMode(a.Mode) {
		return StateCorrect, current, nil
	}
	if adapter.IsGenerated(current) {
		return StateStale, current, nil
	}
	return StateUnmanaged, current, nil
}

// document converges every fragment of one aggregate document and writes it
// at most once. A document that cannot be parsed or rendered is left as is and
// all of its fragments are reported failed.
func (p *pass) document(ctx context.Context, spec adapter.DocumentSpec) {
	var frags []adapter.DesiredArtifact
	for _, a := range p.plan.Artifacts {
		if a.Kind == adapter.KindFragment && a.Document == spec.Path {
			frags = append(frags, a)
		}
	}

	doc, err := fragment.Load(spec.Path, spec.Format, spec.HookDir)
	if err != nil {
		p.res.fail(fmt.Errorf("%s: %w", spec.Path, err))
		for _, a := range frags {
			p.record(ArtifactResult{ID: a.ID(), Kind: a.Kind, Component: a.Component, State: StateAbsent}, err)
		}
		return
	}

	var (
		pending []ArtifactResult
		changed bool
		wanted  = make(map[string]bool, len(frags))
	)
	for _, a := range frags {
		wanted[a.Section+"\x00"+a.Key] = true
		r := ArtifactResult{ID: a.ID(), Kind: a.Kind, Component: a.Component}
		current, exists := doc.Get(a.Section, a.Key)
		switch {
		case !exists:
			r.State = StateAbsent
		case !doc.Owned(a.Section, a.Key):
			r.State = StateUnmanaged
		case fragment.Equal(current, a.Value):
			r.State = StateCorrect
		default:
			r.State = StateStale
		}
		r.Action = actionFor(r.State)
		if r.Action == ActionCreate || r.Action == ActionUpdate {
			if err := doc.Set(a.Section, a.Key, a.Value); err != nil {
				p.record(r, err)
				continue
			}
			changed = true
		}
		pending = append(pending, r)
	}

	for _, section := range doc.Sections() {
		for _, key := range doc.Managed(section) {
			if wanted[section+"\x00"+key] {
				continue
			}
			if doc.Delete(section, key) {
				changed = true
				pending = append(pending, ArtifactResult{
					ID:     adapter.DesiredArtifact{Kind: adapter.KindFragment, Document: spec.Path, Section: section, Key: key}.ID(),
					Kind:   adapter.KindFragment,
					State:  StateOrphaned,
					Action: ActionRemove,
				})
			}
		}
	}

	if changed {
		if err := p.writeDocument(ctx, doc, pending); err != nil {
			p.res.fail(fmt.Errorf("%s: %w", spec.Path, err))
			for _, r := range pending {
				p.record(r, err)
			}
			return
		}
	}
	for _, r := range pending {
		p.record(r, nil)
	}
}

func (p *pass) writeDocument(ctx context.Context, doc fragment.Document, pending []ArtifactResult) error {
	out, err := doc.Bytes()
	if err != nil {
		return err
	}
	if bytes.Equal(out, doc.Original()) {
		return nil
	}
	if p.opts.DryRun {
		if p.opts.Verbose {
			for i := range pending {
				if pending[i].Action != ActionNone && pending[i].Action != ActionSkip {
					pending[i].Diff = contentDiff(doc.Path(), doc.Original(), out)
					break
				}
			}
		}
		return nil
	}
	mode := os.FileMode(0644)
	if fi, err := os.Stat(doc.Path()); err == nil {
		mode = fi.Mode().Perm()
	}
	return p.apply(ctx, func() error {
		return writeArtifact(doc.Path(), out, mode)
	})
}

// scan returns the hawk-managed entries below roots. Links are not followed;
// a root that is itself a symlink is walked through its target but reported
// under its own path.
func (e *Engine) scan(ctx context.Context, roots []string) (map[string]managed, error) {
	found := map[string]managed{}
	for _, root := range roots {
		walkRoot := root
		if real, err := filepath.EvalSymlinks(root); err == nil {
			walkRoot = real
		} else if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if path == walkRoot {
				return nil
			}
			rel, err := filepath.Rel(walkRoot, path)
			if err != nil {
				return err
			}
			dest := filepath.Join(root, rel)

			switch {
			case d.Type()&fs.ModeSymlink != 0:
				target, err := os.Readlink(path)
				if err != nil {
					return err
				}
				if e.managedLink(dest, target) {
					found[dest] = managed{path: dest, root: root, link: true}
				}
			case d.Type().IsRegular():
				ok, err := hasMarker(path)
				if err != nil {
					return err
				}
				if ok {
					found[dest] = managed{path: dest, root: root}
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}
	}
	return found, nil
}

// managedLink reports whether a link at path with the given target points into the store.
func (e *Engine) managedLink(path, target string) bool {
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return within(e.storeRoot, filepath.Clean(target))
}

// prune removes directories emptied by orphan removal, up to their scan root.
func (p *pass) prune() {
	for _, m := range p.removed {
		dir := filepath.Dir(m.path)
		for dir != m.root && within(m.root, dir) {
			entries, err := os.ReadDir(dir)
			if err != nil || len(entries) > 0 {
				break
			}
			if err := os.Remove(dir); err != nil {
				break
			}
			logging.Debug("SyncEngine", "Pruned empty directory %s", dir)
			dir = filepath.Dir(dir)
		}
	}
}

// within reports whether p is root or lies below it.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// shadowed reports whether one of orphans is a strict ancestor of path.
func shadowed(path string, orphans []string) bool {
	for _, o := range orphans {
		if o != path && within(o, path) {
			return true
		}
	}
	return false
}
