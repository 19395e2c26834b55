package fragment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	markerKey  = "_hawk"
	managedKey = "managed"
	hookKeySep = "|"
)

// HookKey builds the key of a hook group: the host event and the command it runs.
func HookKey(event, command string) string {
	return event + hookKeySep + command
}

// SplitHookKey is the inverse of HookKey.
func SplitHookKey(key string) (event, command string) {
	event, command, _ = strings.Cut(key, hookKeySep)
	return event, command
}

// JSONDocument is a JSON object document.
type JSONDocument struct {
	path     string
	hookDir  string
	original []byte
	root     map[string]any
}

// ParseJSON parses data. Empty data is an empty object.
func ParseJSON(path string, data []byte, hookDir string) (*JSONDocument, error) {
	d := &JSONDocument{path: path, hookDir: hookDir, original: data, root: map[string]any{}}
	if len(bytes.TrimSpace(data)) == 0 {
		return d, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&d.root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	if d.root == nil {
		d.root = map[string]any{}
	}
	return d, nil
}

func (d *JSONDocument) Path() string     { return d.path }
func (d *JSONDocument) Format() Format   { return FormatJSON }
func (d *JSONDocument) Original() []byte { return d.original }

// Get implements Document.
func (d *JSONDocument) Get(section, key string) (any, bool) {
	if section == SectionHooks {
		event, command := SplitHookKey(key)
		groups := d.groups(event)
		if i := findGroup(groups, command); i >= 0 {
			return groups[i], true
		}
		return nil, false
	}
	sec, ok := d.root[section].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := sec[key]
	return v, ok
}

// Set implements Document.
func (d *JSONDocument) Set(section, key string, value any) error {
	value, err := normalize(value)
	if err != nil {
		return fmt.Errorf("%s: %s.%s: %w", d.path, section, key, err)
	}
	if section == SectionHooks {
		event, command := SplitHookKey(key)
		if !underDir(command, d.hookDir) {
			return fmt.Errorf("hook command %s is outside %s", command, d.hookDir)
		}
		groups := d.groups(event)
		if i := findGroup(groups, command); i >= 0 {
			groups[i] = value
		} else {
			groups = append(groups, value)
		}
		d.hooks(true)[event] = groups
		return nil
	}

	sec, ok := d.root[section].(map[string]any)
	if !ok {
		if existing, present := d.root[section]; present && existing != nil {
			return fmt.Errorf("%s: %q is not an object", d.path, section)
		}
		sec = map[string]any{}
		d.root[section] = sec
	}
	sec[key] = value
	d.setOwned(section, key, true)
	return nil
}

// Delete implements Document.
func (d *JSONDocument) Delete(section, key string) bool {
	if !d.Owned(section, key) {
		return false
	}
	if section == SectionHooks {
		event, command := SplitHookKey(key)
		groups := d.groups(event)
		i := findGroup(groups, command)
		groups = append(groups[:i], groups[i+1:]...)
		hooks := d.hooks(false)
		if len(groups) == 0 {
			delete(hooks, event)
		} else {
			hooks[event] = groups
		}
		if len(hooks) == 0 {
			delete(d.root, SectionHooks)
		}
		return true
	}

	sec := d.root[section].(map[string]any)
	delete(sec, key)
	if len(sec) == 0 {
		delete(d.root, section)
	}
	d.setOwned(section, key, false)
	return true
}

// Owned implements Document.
func (d *JSONDocument) Owned(section, key string) bool {
	if section == SectionHooks {
		v, ok := d.Get(section, key)
		return ok && d.groupOwned(v)
	}
	if _, ok := d.Get(section, key); !ok {
		return false
	}
	for _, k := range d.ownedList(section) {
		if k == key {
			return true
		}
	}
	return false
}

// Managed implements Document.
func (d *JSONDocument) Managed(section string) []string {
	var keys []string
	if section == SectionHooks {
		hooks := d.hooks(false)
		for _, event := range sortedKeys(hooks) {
			groups, _ := hooks[event].([]any)
			for _, g := range groups {
				if d.groupOwned(g) {
					keys = append(keys, HookKey(event, groupCommand(g)))
				}
			}
		}
		sort.Strings(keys)
		return keys
	}
	for _, k := range d.ownedList(section) {
		if d.Owned(section, k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Sections implements Document.
func (d *JSONDocument) Sections() []string {
	var out []string
	if m, ok := d.marker(false); ok {
		for _, section := range sortedKeys(m) {
			if len(d.Managed(section)) > 0 {
				out = append(out, section)
			}
		}
	}
	if len(d.Managed(SectionHooks)) > 0 {
		out = append(out, SectionHooks)
	}
	sort.Strings(out)
	return out
}

// Bytes implements Document.
func (d *JSONDocument) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", d.path, err)
	}
	if !json.Valid(buf.Bytes()) {
		return nil, fmt.Errorf("%w: rendered %s is not valid JSON", ErrMalformed, d.path)
	}
	return buf.Bytes(), nil
}

func (d *JSONDocument) hooks(create bool) map[string]any {
	h, ok := d.root[SectionHooks].(map[string]any)
	if !ok && create {
		h = map[string]any{}
		d.root[SectionHooks] = h
	}
	return h
}

func (d *JSONDocument) groups(event string) []any {
	groups, _ := d.hooks(false)[event].([]any)
	return groups
}

// groupOwned reports whether every command of a hook group lies under hookDir.
func (d *JSONDocument) groupOwned(g any) bool {
	cmds := groupCommands(g)
	if len(cmds) == 0 {
		return false
	}
	for _, c := range cmds {
		if !underDir(c, d.hookDir) {
			return false
		}
	}
	return true
}

// marker returns the "_hawk.managed" object.
func (d *JSONDocument) marker(create bool) (map[string]any, bool) {
	m, ok := d.root[markerKey].(map[string]any)
	if !ok {
		if !create {
			return nil, false
		}
		m = map[string]any{}
		d.root[markerKey] = m
	}
	managed, ok := m[managedKey].(map[string]any)
	if !ok {
		if !create {
			return nil, false
		}
		managed = map[string]any{}
		m[managedKey] = managed
	}
	return managed, true
}

func (d *JSONDocument) ownedList(section string) []string {
	managed, ok := d.marker(false)
	if !ok {
		return nil
	}
	list, _ := managed[section].([]any)
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (d *JSONDocument) setOwned(section, key string, owned bool) {
	current := d.ownedList(section)
	next := make([]string, 0, len(current)+1)
	for _, k := range current {
		if k != key {
			next = append(next, k)
		}
	}
	if owned {
		next = append(next, key)
	}
	sort.Strings(next)

	if len(next) == 0 {
		managed, ok := d.marker(false)
		if !ok {
			return
		}
		delete(managed, section)
		if len(managed) == 0 {
			delete(d.root, markerKey)
		}
		return
	}
	managed, _ := d.marker(true)
	list := make([]any, len(next))
	for i, k := range next {
		list[i] = k
	}
	managed[section] = list
}

func groupCommands(g any) []string {
	obj, ok := g.(map[string]any)
	if !ok {
		return nil
	}
	hooks, _ := obj["hooks"].([]any)
	var cmds []string
	for _, h := range hooks {
		if hm, ok := h.(map[string]any); ok {
			if c, ok := hm["command"].(string); ok {
				cmds = append(cmds, c)
			}
		}
	}
	return cmds
}

func groupCommand(g any) string {
	if cmds := groupCommands(g); len(cmds) > 0 {
		return cmds[0]
	}
	return ""
}

func findGroup(groups []any, command string) int {
	for i, g := range groups {
		if groupCommand(g) == command {
			return i
		}
	}
	return -1
}

// normalize converts value to the generic representation a decoded document uses.
func normalize(value any) (any, error) {
	data, err := canonical(value)
	if err != nil {
		return nil, err
	}
	var out any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
