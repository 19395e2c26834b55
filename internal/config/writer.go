package config

import (
	"fmt"

	"hawk/internal/component"
	"hawk/pkg/logging"
)

// Save writes l back to its path in the current vocabulary.
func (l *Loader) Save(layer *Layer) error {
	data, err := encodeLayer(layer)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", layer.Path, err)
	}
	if err := l.storage.WriteFile(layer.Path, data); err != nil {
		return err
	}
	layer.Raw = data
	layer.Exists = true
	logging.Info("ConfigWriter", "Updated %s layer %s", layer.Kind, layer.Path)
	return nil
}

// SetEnabled moves ref into the enabled (or disabled) list of type t.
// It reports whether the layer changed.
func (l *Layer) SetEnabled(t component.Type, ref string, enabled bool) bool {
	sel := l.Types[t]
	had := contains(sel.Enabled, ref) == enabled && contains(sel.Disabled, ref) != enabled
	if had {
		return false
	}
	sel.Enabled = without(sel.Enabled, ref)
	sel.Disabled = without(sel.Disabled, ref)
	if enabled {
		sel.Enabled = append(sel.Enabled, ref)
	} else {
		sel.Disabled = append(sel.Disabled, ref)
	}
	l.Types[t] = sel
	return true
}

// Register adds dir to the registered directories. It reports whether it was added.
func (g *GlobalConfig) Register(dir string) bool {
	if g.IsRegistered(dir) {
		return false
	}
	g.Directories = append(g.Directories, dir)
	return true
}

// Unregister removes dir from the registered directories.
func (g *GlobalConfig) Unregister(dir string) bool {
	if !g.IsRegistered(dir) {
		return false
	}
	g.Directories = without(g.Directories, dir)
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func without(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
