// Package formatting renders command results as tables, JSON or YAML.
//
// Every command builds one of the views below and hands it to a Formatter
// created for the --output flag, so the three formats always carry the same
// data.
package formatting

import (
	"errors"
	"fmt"
	"io"

	"hawk/internal/config"
	"hawk/internal/events"
	"hawk/internal/reconciler"
	"hawk/internal/resolver"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatWide  OutputFormat = "wide"  // Table output with source paths
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// ParseFormat validates an --output value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatWide, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format %q (expected table, wide, json or yaml)", s)
}

// Options configures the formatter behavior
type Options struct {
	Format    OutputFormat
	NoHeaders bool // Suppress the header row of tables
	Color     bool // Enable colored output
}

// Status is the view rendered by hawk status.
type Status struct {
	Home        string                        `json:"home" yaml:"home"`
	Directories []string                      `json:"directories" yaml:"directories"`
	Managed     []*reconciler.CacheEntry      `json:"managed" yaml:"managed"`
	Metrics     reconciler.SyncMetricsSummary `json:"metrics" yaml:"metrics"`
}

// Check is the view rendered by hawk check.
type Check struct {
	Layers     []*config.LayerParseError `json:"layers,omitempty" yaml:"layers,omitempty"`
	Components []string                  `json:"components,omitempty" yaml:"components,omitempty"`
}

// NewCheck flattens validation results into a Check view.
func NewCheck(layers *config.LayerErrorCollection, components []error) Check {
	var c Check
	if layers != nil {
		c.Layers = layers.Errors
	}
	for _, err := range components {
		c.Components = append(c.Components, err.Error())
	}
	return c
}

// OK reports whether the check found nothing.
func (c Check) OK() bool { return len(c.Layers) == 0 && len(c.Components) == 0 }

// Resolved is the view rendered by hawk resolve: the effective set of each
// requested tool.
type Resolved struct {
	Dir   string             `json:"dir" yaml:"dir"`
	Hash  string             `json:"hash" yaml:"hash"`
	Tools []resolver.ToolSet `json:"tools" yaml:"tools"`
	// Warnings are copied from the resolved set.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewResolved builds the view of rs for tools.
func NewResolved(rs *resolver.ResolvedSet, tools []string) Resolved {
	v := Resolved{Dir: rs.Dir, Hash: rs.Hash}
	for _, t := range tools {
		v.Tools = append(v.Tools, rs.ForTool(t))
	}
	for _, w := range rs.Warnings {
		v.Warnings = append(v.Warnings, w.String())
	}
	return v
}

// Formatter renders every hawk view in one output format.
type Formatter interface {
	SyncResult(res *reconciler.SyncResult) error
	Resolved(v Resolved) error
	Events(mappings []events.Mapping) error
	Status(s Status) error
	Check(c Check) error
}

// ErrNilResult is returned when a nil result is passed for rendering.
var ErrNilResult = errors.New("nothing to render")

// New creates the formatter for options.Format writing to w.
func New(w io.Writer, options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(w)
	case FormatYAML:
		return NewYAMLFormatter(w)
	default:
		return NewTableFormatter(w, options)
	}
}
