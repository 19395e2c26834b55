package component

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"hawk/pkg/logging"
)

const packagesDir = "packages"

// Store is the query interface of the Component Store.
type Store interface {
	// Root is the absolute store directory. Links pointing below it are hawk-managed.
	Root() string
	// List returns identities of a type, sorted by package then name.
	List(ctx context.Context, t Type) ([]Identity, error)
	// Resolve maps "name" or "pkg/name" to exactly one component.
	Resolve(ctx context.Context, t Type, ref string) (Component, error)
	// Mapping returns "type/identity" -> "path#digest" for every entry.
	Mapping(ctx context.Context) (map[string]string, error)
	// Remove deletes the source entry of id.
	Remove(ctx context.Context, id Identity) error
}

// FSStore is a Store backed by a directory tree.
type FSStore struct {
	mu   sync.RWMutex
	root string
}

// NewFSStore creates a store rooted at root.
func NewFSStore(root string) *FSStore {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &FSStore{root: filepath.Clean(root)}
}

// Root implements Store.
func (s *FSStore) Root() string { return s.root }

type entry struct {
	id   Identity
	path string
	dir  bool
}

// List implements Store.
func (s *FSStore) List(ctx context.Context, t Type) ([]Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.scan(ctx, t)
	if err != nil {
		return nil, err
	}
	ids := make([]Identity, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.id)
	}
	return ids, nil
}

// Resolve implements Store.
func (s *FSStore) Resolve(ctx context.Context, t Type, ref string) (Component, error) {
	pkg, name, err := ParseRef(ref)
	if err != nil {
		return Component{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.scan(ctx, t)
	if err != nil {
		return Component{}, err
	}

	var matches []entry
	for _, e := range entries {
		if e.id.Name != name {
			continue
		}
		if pkg != "" && e.id.Package != pkg {
			continue
		}
		matches = append(matches, e)
	}

	switch len(matches) {
	case 0:
		return Component{}, fmt.Errorf("%s %q: %w", t.Singular(), ref, ErrNotFound)
	case 1:
		return load(matches[0])
	default:
		amb := &AmbiguousError{Type: t, Ref: ref}
		for _, m := range matches {
			amb.Candidates = append(amb.Candidates, m.id)
		}
		return Component{}, amb
	}
}

// Mapping implements Store.
func (s *FSStore) Mapping(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mapping := make(map[string]string)
	for _, t := range AllTypes() {
		entries, err := s.scan(ctx, t)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			value := e.path
			c, err := load(e)
			if err != nil {
				value += "#invalid"
			} else if d := digestOf(c); d != "" {
				value += "#" + d
			}
			mapping[e.id.Key()] = value
		}
	}
	return mapping, nil
}

// Remove implements Store.
// The identity must match exactly; a root-level component is removable even
// when packages carry one of the same name.
func (s *FSStore) Remove(ctx context.Context, id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.scan(ctx, id.Type)
	if err != nil {
		return err
	}
	path := ""
	for _, e := range entries {
		if e.id == id {
			path = e.path
			break
		}
	}
	if path == "" {
		return fmt.Errorf("%s %q: %w", id.Type.Singular(), id.String(), ErrNotFound)
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	logging.Info("ComponentStore", "Removed %s from %s", id.Key(), path)
	return nil
}

// scan lists the entries of a type across the root and every package.
func (s *FSStore) scan(ctx context.Context, t Type) ([]entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("component store %s is unreadable: %w", s.root, err)
	}

	entries, err := scanDir(filepath.Join(s.root, string(t)), t, "")
	if err != nil {
		return nil, err
	}

	pkgs, err := os.ReadDir(filepath.Join(s.root, packagesDir))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	for _, p := range pkgs {
		if !p.IsDir() || ignored(p.Name()) {
			continue
		}
		pkgEntries, err := scanDir(filepath.Join(s.root, packagesDir, p.Name(), string(t)), t, p.Name())
		if err != nil {
			return nil, err
		}
		entries = append(entries, pkgEntries...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].id.Package != entries[j].id.Package {
			return entries[i].id.Package < entries[j].id.Package
		}
		if entries[i].id.Name != entries[j].id.Name {
			return entries[i].id.Name < entries[j].id.Name
		}
		return entries[i].path < entries[j].path
	})
	return entries, nil
}

func scanDir(dir string, t Type, pkg string) ([]entry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var entries []entry
	for _, item := range items {
		if ignored(item.Name()) {
			continue
		}
		path := filepath.Join(dir, item.Name())
		isDir := item.IsDir()
		if item.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				logging.Warn("ComponentStore", "Skipping dangling link %s", path)
				continue
			}
			isDir = info.IsDir()
		}

		name, ok := entryName(t, item.Name(), isDir)
		if !ok {
			continue
		}
		entries = append(entries, entry{
			id:   Identity{Type: t, Package: pkg, Name: name},
			path: path,
			dir:  isDir,
		})
	}
	return entries, nil
}

// entryName derives the component name from a file name, or rejects the entry.
func entryName(t Type, base string, isDir bool) (string, bool) {
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	switch t {
	case TypeSkill:
		if isDir {
			return base, true
		}
		return stem, ext == ".md"
	case TypeHook:
		return stem, !isDir && stem != ""
	case TypePrompt, TypeAgent:
		return stem, !isDir && ext == ".md"
	case TypeMCP:
		return stem, !isDir && (ext == ".yaml" || ext == ".yml" || ext == ".json")
	}
	return "", false
}

func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}

// load reads the metadata an entry's type carries.
func load(e entry) (Component, error) {
	c := Component{Identity: e.id, Path: e.path, Dir: e.dir}
	switch e.id.Type {
	case TypeHook:
		f, err := os.Open(e.path)
		if err != nil {
			return Component{}, err
		}
		defer f.Close()
		meta, err := ParseHookHeader(f)
		if err != nil {
			return Component{}, &MetadataError{Path: e.path, Reason: err}
		}
		c.Hook = meta
	case TypeMCP:
		data, err := os.ReadFile(e.path)
		if err != nil {
			return Component{}, err
		}
		desc, err := ParseServerDescriptor(data)
		if err != nil {
			return Component{}, &MetadataError{Path: e.path, Reason: err}
		}
		c.Server = desc
	}
	return c, nil
}

// digestOf fingerprints the transformed parts of a loaded component.
// Prompts are rendered into generated command files, so their content counts.
func digestOf(c Component) string {
	if c.Server != nil || c.Type == TypePrompt {
		raw, err := os.ReadFile(c.Path)
		if err != nil {
			return ""
		}
		return digest(Component{}, raw)
	}
	return digest(c, nil)
}
