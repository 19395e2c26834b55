package fragment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Format is the encoding of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// SectionHooks is the JSON section holding host hook groups.
const SectionHooks = "hooks"

// SectionTopLevel addresses top-level keys of a TOML document.
const SectionTopLevel = ""

// ErrMalformed is returned when an existing document cannot be parsed.
var ErrMalformed = errors.New("malformed document")

// Document is an aggregate host configuration file.
type Document interface {
	Path() string
	Format() Format
	// Get returns the current value of key, owned or not.
	Get(section, key string) (any, bool)
	// Set writes key and marks it as owned by hawk.
	Set(section, key string, value any) error
	// Delete removes an owned key. It reports whether anything was removed.
	Delete(section, key string) bool
	// Owned reports whether key is present and owned by hawk.
	Owned(section, key string) bool
	// Managed returns the owned keys of section, sorted.
	Managed(section string) []string
	// Sections returns every section holding owned keys, sorted.
	Sections() []string
	// Bytes renders the document. The result is validated before it is returned.
	Bytes() ([]byte, error)
	// Original returns the bytes the document was parsed from.
	Original() []byte
}

// Load reads path and parses it in format. A missing file is an empty document.
// hookDir is the directory whose commands mark JSON hook groups as owned.
func Load(path string, format Format, hookDir string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, format, data, hookDir)
}

// Parse parses data in format.
func Parse(path string, format Format, data []byte, hookDir string) (Document, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(path, data, hookDir)
	case FormatTOML:
		return ParseTOML(path, data)
	}
	return nil, fmt.Errorf("unsupported document format %q", format)
}

// Equal compares two values by their canonical JSON encoding, so decoded
// documents and freshly built values compare equal when they render the same.
func Equal(a, b any) bool {
	ja, err := canonical(a)
	if err != nil {
		return false
	}
	jb, err := canonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

func canonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// underDir reports whether path lies strictly below dir.
func underDir(path, dir string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel)
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
