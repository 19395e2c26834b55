package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hawk/internal/fragment"
	"hawk/internal/report"
	"hawk/internal/resolver"
)

// Marker identifies files generated by hawk. It appears in the first lines of
// every generated file.
const Marker = "hawk-managed"

// HookDir is the subdirectory of a tool root that holds linked and generated scripts.
const HookDir = "hooks/hawk"

// Scope is where a tool's configuration is written.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
)

// Target describes the destination of one tool.
type Target struct {
	Tool  string `json:"tool"`
	Scope Scope  `json:"scope"`
	// Root is the tool's native config directory, e.g. ~/.claude or <dir>/.claude.
	Root string `json:"root"`
	// Home is the user's home directory.
	Home string `json:"home"`
	// Dir is the nearest registered directory for project scope.
	Dir string `json:"dir,omitempty"`
	// StoreRoot is the component store root; links below it are owned.
	StoreRoot string `json:"storeRoot"`
}

// HookRoot is the directory of linked and generated scripts.
func (t Target) HookRoot() string { return filepath.Join(t.Root, filepath.FromSlash(HookDir)) }

// Kind is the generation rule of an artifact.
type Kind string

const (
	KindLink     Kind = "native-link"
	KindBridge   Kind = "generated-bridge"
	KindFragment Kind = "generated-fragment"
)

// DesiredArtifact is one thing that must exist in a tool's destination.
type DesiredArtifact struct {
	Kind Kind `json:"kind"`
	// Path is the destination of links and generated files.
	Path string `json:"path,omitempty"`
	// Component is the identity key the artifact was derived from, if any.
	Component string `json:"component,omitempty"`
	// Source is the link target.
	Source string `json:"source,omitempty"`
	// Content and Mode describe generated files.
	Content []byte      `json:"-"`
	Mode    os.FileMode `json:"mode,omitempty"`
	// Document, Section, Key and Value describe fragment entries.
	Document string `json:"document,omitempty"`
	Section  string `json:"section,omitempty"`
	Key      string `json:"key,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// ID is unique per artifact within a plan.
func (a DesiredArtifact) ID() string {
	if a.Kind == KindFragment {
		return a.Document + "#" + a.Section + "/" + a.Key
	}
	return a.Path
}

// String renders the artifact for humans.
func (a DesiredArtifact) String() string {
	switch a.Kind {
	case KindLink:
		return fmt.Sprintf("%s -> %s", a.Path, a.Source)
	case KindFragment:
		sec := a.Section
		if sec == "" {
			sec = "(top)"
		}
		return fmt.Sprintf("%s [%s] %s", a.Document, sec, a.Key)
	default:
		return a.Path
	}
}

// DocumentSpec describes an aggregate document the plan edits.
type DocumentSpec struct {
	Path   string          `json:"path"`
	Format fragment.Format `json:"format"`
	// HookDir marks JSON hook groups as owned.
	HookDir string `json:"hookDir,omitempty"`
}

// Plan is the desired state of one tool.
type Plan struct {
	Tool      string            `json:"tool"`
	Target    Target            `json:"target"`
	Artifacts []DesiredArtifact `json:"artifacts"`
	Documents []DocumentSpec    `json:"documents,omitempty"`
	// Scan lists the directories whose hawk-owned entries the plan fully describes.
	Scan     []string         `json:"scan"`
	Warnings []report.Warning `json:"warnings,omitempty"`
}

// Adapter materializes a tool's resolved set.
type Adapter interface {
	// Name is the tool identifier.
	Name() string
	// Materialize computes the desired state for target.
	Materialize(set resolver.ToolSet, target Target) (*Plan, error)
}

// IsGenerated reports whether content carries the hawk marker in its header.
func IsGenerated(content []byte) bool {
	head := content
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(string(head), Marker)
}
