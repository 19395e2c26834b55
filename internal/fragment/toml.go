package fragment

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// BeginMarker opens the hawk block of a TOML document.
	BeginMarker = "# >>> hawk managed >>>"
	// EndMarker closes it.
	EndMarker = "# <<< hawk managed <<<"

	blockNotice = "# Entries in this block are written by hawk; edits are overwritten on sync."
)

var (
	tableHeaderRe = regexp.MustCompile(`^\s*\[`)
	bareKeyRe     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// TOMLDocument is a TOML document with one marked hawk block.
type TOMLDocument struct {
	path     string
	original []byte
	// user is the document text with the hawk block removed.
	user     string
	userData map[string]any
	// managed holds the block entries: section -> key -> value. The top-level
	// section is SectionTopLevel.
	managed map[string]map[string]any
}

// ParseTOML splits data into user text and the hawk block and parses both.
func ParseTOML(path string, data []byte) (*TOMLDocument, error) {
	d := &TOMLDocument{path: path, original: data, managed: map[string]map[string]any{}}

	user, block, err := splitBlock(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	d.user = user

	if err := toml.Unmarshal([]byte(user), &d.userData); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	if d.userData == nil {
		d.userData = map[string]any{}
	}

	var blockData map[string]any
	if err := toml.Unmarshal([]byte(block), &blockData); err != nil {
		return nil, fmt.Errorf("%w: %s: hawk block: %v", ErrMalformed, path, err)
	}
	for k, v := range blockData {
		if table, ok := v.(map[string]any); ok && isSectionTable(table) {
			d.managed[k] = map[string]any{}
			for name, entry := range table {
				d.managed[k][name] = entry
			}
			continue
		}
		d.section(SectionTopLevel)[k] = v
	}
	return d, nil
}

// isSectionTable distinguishes [section.key] tables from a top-level inline value.
func isSectionTable(table map[string]any) bool {
	for _, v := range table {
		if _, ok := v.(map[string]any); !ok {
			return false
		}
	}
	return len(table) > 0
}

// splitBlock returns the text outside the markers and the text between them.
// The blank line Bytes writes after the end marker belongs to the block.
func splitBlock(text string) (user, block string, err error) {
	lines := strings.SplitAfter(text, "\n")
	var userB, blockB strings.Builder
	inside, found, closed := false, false, false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		afterEnd := closed
		closed = false
		switch {
		case trimmed == BeginMarker:
			if inside || found {
				return "", "", fmt.Errorf("duplicate %q marker", BeginMarker)
			}
			inside, found = true, true
		case trimmed == EndMarker:
			if !inside {
				return "", "", fmt.Errorf("unexpected %q marker", EndMarker)
			}
			inside, closed = false, true
		case inside:
			blockB.WriteString(line)
		case afterEnd && trimmed == "" && line != "":
			// separator
		default:
			userB.WriteString(line)
		}
	}
	if inside {
		return "", "", fmt.Errorf("unterminated hawk block")
	}
	return userB.String(), blockB.String(), nil
}

func (d *TOMLDocument) Path() string     { return d.path }
func (d *TOMLDocument) Format() Format   { return FormatTOML }
func (d *TOMLDocument) Original() []byte { return d.original }

func (d *TOMLDocument) section(name string) map[string]any {
	s, ok := d.managed[name]
	if !ok {
		s = map[string]any{}
		d.managed[name] = s
	}
	return s
}

// Get implements Document. Owned entries take precedence over user text.
func (d *TOMLDocument) Get(section, key string) (any, bool) {
	if v, ok := d.managed[section][key]; ok {
		return v, true
	}
	if section == SectionTopLevel {
		v, ok := d.userData[key]
		return v, ok
	}
	sec, ok := d.userData[section].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := sec[key]
	return v, ok
}

// Set implements Document.
func (d *TOMLDocument) Set(section, key string, value any) error {
	if _, ok := d.userValue(section, key); ok {
		return fmt.Errorf("%s: %s is defined outside the hawk block", d.path, dotted(section, key))
	}
	d.section(section)[key] = value
	return nil
}

func (d *TOMLDocument) userValue(section, key string) (any, bool) {
	if section == SectionTopLevel {
		v, ok := d.userData[key]
		return v, ok
	}
	sec, ok := d.userData[section].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := sec[key]
	return v, ok
}

// Delete implements Document.
func (d *TOMLDocument) Delete(section, key string) bool {
	if _, ok := d.managed[section][key]; !ok {
		return false
	}
	delete(d.managed[section], key)
	if len(d.managed[section]) == 0 {
		delete(d.managed, section)
	}
	return true
}

// Owned implements Document.
func (d *TOMLDocument) Owned(section, key string) bool {
	_, ok := d.managed[section][key]
	return ok
}

// Managed implements Document.
func (d *TOMLDocument) Managed(section string) []string {
	return sortedKeys(d.managed[section])
}

// Sections implements Document.
func (d *TOMLDocument) Sections() []string {
	var out []string
	for _, s := range sortedKeys(d.managed) {
		if len(d.managed[s]) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Bytes implements Document. The block goes before the first table header of
// the user text so that top-level keys stay top-level.
func (d *TOMLDocument) Bytes() ([]byte, error) {
	block, err := d.renderBlock()
	if err != nil {
		return nil, err
	}

	var out string
	if block == "" {
		out = d.user
	} else {
		lines := strings.SplitAfter(d.user, "\n")
		at := len(lines)
		for i, line := range lines {
			if tableHeaderRe.MatchString(line) {
				at = i
				break
			}
		}
		head := strings.Join(lines[:at], "")
		tail := strings.Join(lines[at:], "")
		if head != "" && !strings.HasSuffix(head, "\n") {
			head += "\n"
		}
		out = head + block
		if tail != "" {
			out += "\n" + tail
		}
	}

	var check map[string]any
	if err := toml.Unmarshal([]byte(out), &check); err != nil {
		return nil, fmt.Errorf("%w: rendered %s does not parse: %v", ErrMalformed, d.path, err)
	}
	return []byte(out), nil
}

func (d *TOMLDocument) renderBlock() (string, error) {
	if len(d.Sections()) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(BeginMarker + "\n")
	b.WriteString(blockNotice + "\n")

	for _, key := range d.Managed(SectionTopLevel) {
		text, err := encodeInline(map[string]any{key: d.managed[SectionTopLevel][key]})
		if err != nil {
			return "", fmt.Errorf("failed to render %s: %w", key, err)
		}
		b.WriteString(text)
	}
	for _, section := range d.Sections() {
		if section == SectionTopLevel {
			continue
		}
		for _, key := range d.Managed(section) {
			fields, ok := d.managed[section][key].(map[string]any)
			if !ok {
				return "", fmt.Errorf("%s is not a table", dotted(section, key))
			}
			text, err := encodeInline(fields)
			if err != nil {
				return "", fmt.Errorf("failed to render %s: %w", dotted(section, key), err)
			}
			b.WriteString("\n[" + dotted(section, key) + "]\n")
			b.WriteString(text)
		}
	}
	b.WriteString(EndMarker + "\n")
	return b.String(), nil
}

// encodeInline renders key/value pairs with nested tables written inline.
func encodeInline(v map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetTablesInline(true)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func dotted(section, key string) string {
	if section == SectionTopLevel {
		return quoteKey(key)
	}
	return quoteKey(section) + "." + quoteKey(key)
}

func quoteKey(k string) string {
	if bareKeyRe.MatchString(k) {
		return k
	}
	return strconv.Quote(k)
}
