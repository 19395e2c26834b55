package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"hawk/internal/component"
	"hawk/internal/config"
	"hawk/internal/reconciler"
	"hawk/pkg/logging"
)

// Scope prefixes accepted by ParseScope.
const (
	scopeGlobal  = "global"
	scopeProfile = "profile:"
	scopeDir     = "dir:"
)

// LayerScope addresses one editable config layer.
type LayerScope struct {
	Kind config.Kind
	// Name is the profile name or the directory path.
	Name string
}

// ParseScope parses "global", "profile:<name>" or "dir:<path>".
func ParseScope(s string) (LayerScope, error) {
	switch {
	case s == "" || s == scopeGlobal:
		return LayerScope{Kind: config.KindGlobal}, nil
	case strings.HasPrefix(s, scopeProfile) && len(s) > len(scopeProfile):
		return LayerScope{Kind: config.KindProfile, Name: strings.TrimPrefix(s, scopeProfile)}, nil
	case strings.HasPrefix(s, scopeDir) && len(s) > len(scopeDir):
		dir, err := config.ExpandHome(strings.TrimPrefix(s, scopeDir))
		if err != nil {
			return LayerScope{}, err
		}
		return LayerScope{Kind: config.KindDirectory, Name: dir}, nil
	}
	return LayerScope{}, fmt.Errorf("invalid scope %q (expected global, profile:<name> or dir:<path>)", s)
}

func (s LayerScope) String() string {
	switch s.Kind {
	case config.KindProfile:
		return scopeProfile + s.Name
	case config.KindDirectory:
		return scopeDir + s.Name
	}
	return scopeGlobal
}

// layer loads the layer addressed by scope. Missing profile and directory
// documents come back empty, ready to be written.
func (s *Services) layer(scope LayerScope) (*config.Layer, error) {
	switch scope.Kind {
	case config.KindProfile:
		l, _, err := config.LoadProfile(s.Home, scope.Name)
		return l, err
	case config.KindDirectory:
		g, _, err := s.Loader.Global()
		if err != nil {
			return nil, err
		}
		if !g.IsRegistered(scope.Name) {
			return nil, fmt.Errorf("%w: %s (run hawk register first)", ErrNotRegistered, scope.Name)
		}
		return config.LoadDirectory(scope.Name)
	default:
		_, l, err := s.Loader.Global()
		return l, err
	}
}

// SetEnabled adds ref to the enabled or disabled list of type t in the layer
// addressed by scope. Enabling checks that ref resolves to exactly one
// component; disabling accepts any name. It returns the edited document path
// and whether it changed.
func (s *Services) SetEnabled(ctx context.Context, scope LayerScope, t component.Type, ref string, enabled bool) (string, bool, error) {
	if _, _, err := component.ParseRef(ref); err != nil {
		return "", false, err
	}
	if enabled {
		if _, err := s.Store.Resolve(ctx, t, ref); err != nil {
			return "", false, err
		}
	}

	var (
		path    string
		changed bool
	)
	err := s.withLock(ctx, func() error {
		l, err := s.layer(scope)
		if err != nil {
			return err
		}
		path = l.Path
		if !l.SetEnabled(t, ref, enabled) {
			return nil
		}
		changed = true
		return s.Loader.Save(l)
	})
	if err != nil {
		return "", false, err
	}
	return path, changed, nil
}

// Register adds dir to the registered directories. dir must exist.
func (s *Services) Register(ctx context.Context, dir string) (string, bool, error) {
	dir, err := config.ExpandHome(dir)
	if err != nil {
		return "", false, err
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return "", false, fmt.Errorf("cannot register %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return "", false, fmt.Errorf("cannot register %s: not a directory", dir)
	}
	changed := false
	err = s.editGlobal(ctx, func(g *config.GlobalConfig) bool {
		changed = g.Register(dir)
		return changed
	})
	return dir, changed, err
}

// Unregister removes dir from the registered directories. Its .hawk layer is kept.
func (s *Services) Unregister(ctx context.Context, dir string) (string, bool, error) {
	dir, err := config.ExpandHome(dir)
	if err != nil {
		return "", false, err
	}
	changed := false
	err = s.editGlobal(ctx, func(g *config.GlobalConfig) bool {
		changed = g.Unregister(dir)
		return changed
	})
	return dir, changed, err
}

func (s *Services) editGlobal(ctx context.Context, edit func(*config.GlobalConfig) bool) error {
	return s.withLock(ctx, func() error {
		g, l, err := s.Loader.Global()
		if err != nil {
			return err
		}
		if !edit(g) {
			return nil
		}
		return s.Loader.Save(l)
	})
}

// RemoveResult describes a completed Remove.
type RemoveResult struct {
	Identity component.Identity `json:"identity" yaml:"identity"`
	Path     string             `json:"path" yaml:"path"`
	// Scrubbed lists the layer documents rewritten without the reference.
	Scrubbed []string `json:"scrubbed,omitempty" yaml:"scrubbed,omitempty"`
}

// Remove deletes a component from the store. Every layer naming it (global,
// all profiles, every registered directory) is found first. Without scrub
// any reference fails the call with a *ReferencedError; with scrub each layer
// is rewritten without the reference before the source is deleted, and a
// failed rewrite leaves the source in place.
func (s *Services) Remove(ctx context.Context, t component.Type, ref string, scrub bool) (*RemoveResult, error) {
	var res *RemoveResult
	err := s.withLock(ctx, func() error {
		var err error
		res, err = s.remove(ctx, t, ref, scrub)
		return err
	})
	return res, err
}

func (s *Services) remove(ctx context.Context, t component.Type, ref string, scrub bool) (*RemoveResult, error) {
	c, err := s.Store.Resolve(ctx, t, ref)
	if err != nil {
		return nil, err
	}
	id := c.Identity

	layers, err := s.Loader.AllLayers(ctx)
	if err != nil {
		return nil, err
	}
	match := func(r string) bool { return RefersTo(r, id) }

	var referencing []*config.Layer
	for _, l := range layers {
		for _, r := range l.Refs(t) {
			if match(r) {
				referencing = append(referencing, l)
				break
			}
		}
	}

	res := &RemoveResult{Identity: id, Path: c.Path}
	if len(referencing) > 0 && !scrub {
		refErr := &ReferencedError{Identity: id}
		for _, l := range referencing {
			refErr.Layers = append(refErr.Layers, l.Path)
		}
		return nil, refErr
	}

	for _, l := range referencing {
		l.Scrub(t, match)
		if err := s.Loader.Save(l); err != nil {
			return nil, fmt.Errorf("failed to remove references from %s, %s was not deleted: %w", l.Path, id.Key(), err)
		}
		res.Scrubbed = append(res.Scrubbed, l.Path)
	}

	if err := s.Store.Remove(ctx, id); err != nil {
		return nil, err
	}
	logging.Info("Maintenance", "Removed %s (%d layer(s) scrubbed)", id.Key(), len(res.Scrubbed))
	return res, nil
}

// RefersTo reports whether a layer reference can name id: a qualified
// reference must match exactly, an unqualified one matches by name.
func RefersTo(ref string, id component.Identity) bool {
	pkg, name, err := component.ParseRef(ref)
	if err != nil {
		return false
	}
	return name == id.Name && (pkg == "" || pkg == id.Package)
}

// SyncAll syncs every registered directory. Directories that no longer exist
// are skipped with a warning; a directory whose sync cannot start is reported
// in the returned error after the others have run.
func (s *Services) SyncAll(ctx context.Context, req reconciler.SyncRequest) ([]*reconciler.SyncResult, error) {
	g, _, err := s.Loader.Global()
	if err != nil {
		return nil, err
	}

	var (
		results []*reconciler.SyncResult
		errs    []error
	)
	for _, dir := range g.Directories {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			logging.Warn("Maintenance", "Skipping registered directory %s: not found", dir)
			continue
		}
		r := req
		r.Dir = dir
		res, err := s.Manager.Sync(ctx, r)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dir, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// CheckReport collects every problem found by Check.
type CheckReport struct {
	// Layers holds parse and validation errors of config documents.
	Layers *config.LayerErrorCollection
	// Components holds store entries whose metadata cannot be read.
	Components []error
}

// OK reports whether nothing was found.
func (r *CheckReport) OK() bool {
	return !r.Layers.HasErrors() && len(r.Components) == 0
}

// Check validates every config document and every store entry without
// stopping at the first problem.
func (s *Services) Check(ctx context.Context) (*CheckReport, error) {
	report := &CheckReport{Layers: s.Loader.Validate(ctx)}
	for _, t := range component.AllTypes() {
		ids, err := s.Store.List(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", t, err)
		}
		for _, id := range ids {
			if _, err := s.Store.Resolve(ctx, t, id.String()); err != nil {
				var meta *component.MetadataError
				switch {
				case errors.As(err, &meta):
					report.Components = append(report.Components, err)
				case errors.Is(err, component.ErrAmbiguous):
					// Listed identities are exact; ambiguity only affects unqualified lookups.
				default:
					return nil, err
				}
			}
		}
	}
	return report, nil
}
