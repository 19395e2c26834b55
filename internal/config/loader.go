package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hawk/internal/report"
	"hawk/pkg/logging"
)

// LoadGlobal reads the global config. A missing file yields empty defaults.
func LoadGlobal(home string) (*GlobalConfig, *Layer, error) {
	return loadGlobal(NewStorage(home))
}

func loadGlobal(s *Storage) (*GlobalConfig, *Layer, error) {
	path := GlobalPath(s.Home())
	l, err := readLayer(s, KindGlobal, "", path)
	if err != nil {
		return nil, nil, err
	}
	if l.Global == nil {
		l.Global = &GlobalConfig{Destinations: map[string]Destination{}}
	}
	return l.Global, l, nil
}

// LoadProfile reads a named profile. The boolean is false when it does not exist.
func LoadProfile(home, name string) (*Layer, bool, error) {
	return loadProfile(NewStorage(home), name)
}

func loadProfile(s *Storage, name string) (*Layer, bool, error) {
	l, err := readLayer(s, KindProfile, name, ProfilePath(s.Home(), sanitizeFilename(name)))
	if err != nil {
		return nil, false, err
	}
	return l, l.Exists, nil
}

// ParseLayer decodes a layer document held in memory.
func ParseLayer(kind Kind, name, path string, data []byte) (*Layer, error) {
	return decodeLayer(kind, name, path, data)
}

// LoadDirectory reads the layer of a registered directory. Missing is empty.
func LoadDirectory(dir string) (*Layer, error) {
	return readLayer(NewStorage(""), KindDirectory, dir, DirectoryLayerPath(dir))
}

func readLayer(s *Storage, kind Kind, name, path string) (*Layer, error) {
	data, err := s.ReadFile(path)
	if err != nil {
		if errors.Is(err, ErrLayerNotFound) {
			return newLayer(kind, name, path), nil
		}
		return nil, &LayerParseError{
			Path: path, Kind: kind, ErrorType: ErrorTypeIO, Message: err.Error(), Err: err,
		}
	}
	l, err := decodeLayer(kind, name, path, data)
	if err != nil {
		return nil, err
	}
	logging.Debug("ConfigLoader", "Loaded %s layer from %s", kind, path)
	return l, nil
}

// DirectoryChain returns every registered directory that is dir or one of its
// ancestors, ordered root to leaf. Unregistered directories contribute nothing.
func DirectoryChain(registered []string, dir string) []string {
	dir = filepath.Clean(dir)
	var chain []string
	seen := map[string]bool{}
	for _, r := range registered {
		r = filepath.Clean(r)
		if seen[r] || !isAncestorOrSelf(r, dir) {
			continue
		}
		seen[r] = true
		chain = append(chain, r)
	}
	sort.Slice(chain, func(i, j int) bool { return len(chain[i]) < len(chain[j]) })
	return chain
}

func isAncestorOrSelf(ancestor, dir string) bool {
	if ancestor == dir {
		return true
	}
	rel, err := filepath.Rel(ancestor, dir)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// Loader assembles the ordered layer set of a directory.
type Loader struct {
	storage *Storage
}

// NewLoader creates a loader for the given hawk home.
func NewLoader(home string) *Loader {
	return &Loader{storage: NewStorage(home)}
}

// Home returns the hawk home directory.
func (l *Loader) Home() string { return l.storage.Home() }

// Storage returns the underlying document storage.
func (l *Loader) Storage() *Storage { return l.storage }

// Global reads the global config.
func (l *Loader) Global() (*GlobalConfig, *Layer, error) {
	return loadGlobal(l.storage)
}

// Load returns the layers contributing to dir: global, profiles, then the
// directory chain root to leaf. Any malformed document fails the whole load.
func (l *Loader) Load(ctx context.Context, dir string) (*LayerSet, error) {
	dir, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}

	g, global, err := loadGlobal(l.storage)
	if err != nil {
		return nil, err
	}

	set := &LayerSet{Dir: dir, Global: g, Chain: DirectoryChain(g.Directories, dir)}

	var dirLayers []*Layer
	for _, d := range set.Chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dl, err := readLayer(l.storage, KindDirectory, d, DirectoryLayerPath(d))
		if err != nil {
			return nil, err
		}
		dirLayers = append(dirLayers, dl)
	}

	// Profiles are referenced from the global layer and then each directory
	// layer, outermost first. A profile's own base is applied before it.
	pa := &profileApplier{storage: l.storage, applied: map[string]bool{}, active: map[string]bool{}}
	for _, ref := range append([]*Layer{global}, dirLayers...) {
		if ref.Profile == "" {
			continue
		}
		if err := pa.apply(ref.Profile, ref.Scope()); err != nil {
			return nil, err
		}
	}

	set.Layers = append(set.Layers, global)
	set.Layers = append(set.Layers, pa.layers...)
	set.Layers = append(set.Layers, dirLayers...)
	set.Warnings = pa.warnings

	logging.Debug("ConfigLoader", "Loaded %d layers for %s (%d registered ancestors)",
		len(set.Layers), dir, len(set.Chain))
	return set, nil
}

type profileApplier struct {
	storage  *Storage
	applied  map[string]bool
	active   map[string]bool
	layers   []*Layer
	warnings []report.Warning
}

func (p *profileApplier) apply(name, from string) error {
	if p.applied[name] {
		return nil
	}
	if p.active[name] {
		p.warnings = append(p.warnings, report.Newf(report.CodeProfileCycle, from, name,
			"profile %q is part of a cycle and is applied once", name))
		return nil
	}

	layer, ok, err := loadProfile(p.storage, name)
	if err != nil {
		return err
	}
	if !ok {
		p.warnings = append(p.warnings, report.Newf(report.CodeProfileNotFound, from, name,
			"profile %q not found", name))
		p.applied[name] = true
		return nil
	}

	p.active[name] = true
	if layer.Profile != "" {
		if err := p.apply(layer.Profile, layer.Scope()); err != nil {
			return err
		}
	}
	delete(p.active, name)

	p.applied[name] = true
	p.layers = append(p.layers, layer)
	return nil
}

// AllLayers returns the global layer, every profile and the layer of every
// registered directory. Used by maintenance operations that touch all documents.
func (l *Loader) AllLayers(ctx context.Context) ([]*Layer, error) {
	g, global, err := loadGlobal(l.storage)
	if err != nil {
		return nil, err
	}
	layers := []*Layer{global}

	names, err := l.storage.ListProfiles()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		p, _, err := loadProfile(l.storage, name)
		if err != nil {
			return nil, err
		}
		layers = append(layers, p)
	}

	for _, d := range g.Directories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dl, err := readLayer(l.storage, KindDirectory, d, DirectoryLayerPath(d))
		if err != nil {
			return nil, err
		}
		layers = append(layers, dl)
	}
	return layers, nil
}

// Validate parses every known document and collects all errors instead of
// stopping at the first one.
func (l *Loader) Validate(ctx context.Context) *LayerErrorCollection {
	errs := &LayerErrorCollection{}

	g, _, err := loadGlobal(l.storage)
	if err != nil {
		errs.Add(GlobalPath(l.Home()), KindGlobal, err)
		g = &GlobalConfig{}
	}

	names, err := l.storage.ListProfiles()
	if err != nil {
		errs.Add(ProfilesPath(l.Home()), KindProfile, err)
	}
	for _, name := range names {
		if _, _, err := loadProfile(l.storage, name); err != nil {
			errs.Add(ProfilePath(l.Home(), name), KindProfile, err)
		}
	}

	for _, d := range g.Directories {
		if ctx.Err() != nil {
			break
		}
		if _, err := readLayer(l.storage, KindDirectory, d, DirectoryLayerPath(d)); err != nil {
			errs.Add(DirectoryLayerPath(d), KindDirectory, err)
		}
	}
	return errs
}
