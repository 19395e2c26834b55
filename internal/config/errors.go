package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Error types carried by LayerParseError.
const (
	ErrorTypeParse      = "parse"
	ErrorTypeValidation = "validation"
	ErrorTypeIO         = "io"
)

// ErrLayerNotFound is returned when a named layer file does not exist.
var ErrLayerNotFound = errors.New("layer not found")

// LayerParseError is a structured error for a layer document that could not be used.
type LayerParseError struct {
	Path        string   `json:"path" yaml:"path"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	ErrorType   string   `json:"errorType" yaml:"errorType"`
	Message     string   `json:"message" yaml:"message"`
	Line        int      `json:"line,omitempty" yaml:"line,omitempty"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Err         error    `json:"-" yaml:"-"`
}

// Error implements the error interface
func (e *LayerParseError) Error() string {
	return fmt.Sprintf("[%s/%s] %s: %s", e.Kind, e.ErrorType, e.Path, e.Message)
}

func (e *LayerParseError) Unwrap() error { return e.Err }

// DetailedError returns a multi-line message with all context.
func (e *LayerParseError) DetailedError() string {
	parts := []string{
		fmt.Sprintf("Configuration error in %s layer: %s", e.Kind, filepath.Base(e.Path)),
		fmt.Sprintf("  File: %s", e.Path),
		fmt.Sprintf("  Type: %s", e.ErrorType),
	}
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("  Line: %d", e.Line))
	}
	parts = append(parts, fmt.Sprintf("  Error: %s", e.Message))
	if len(e.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, s := range e.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", s))
		}
	}
	return strings.Join(parts, "\n")
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

func newParseError(path string, kind Kind, err error) *LayerParseError {
	pe := &LayerParseError{
		Path:      path,
		Kind:      kind,
		ErrorType: ErrorTypeParse,
		Message:   err.Error(),
		Err:       err,
		Suggestions: []string{
			"Check the YAML syntax of the file",
			"Valid top-level keys: profile, skills, hooks, prompts, agents, mcp, bindings, tools",
		},
	}
	if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
	}
	return pe
}

func newValidationError(path string, kind Kind, message string, suggestions ...string) *LayerParseError {
	return &LayerParseError{
		Path:        path,
		Kind:        kind,
		ErrorType:   ErrorTypeValidation,
		Message:     message,
		Suggestions: suggestions,
	}
}

// LayerErrorCollection holds the errors of a multi-file validation pass.
type LayerErrorCollection struct {
	Errors []*LayerParseError `json:"errors"`
}

// Error implements the error interface for the collection
func (c *LayerErrorCollection) Error() string {
	switch len(c.Errors) {
	case 0:
		return "no configuration errors"
	case 1:
		return c.Errors[0].Error()
	}
	return fmt.Sprintf("%d configuration errors: %s (and %d more)",
		len(c.Errors), c.Errors[0].Error(), len(c.Errors)-1)
}

// HasErrors returns true if there are any errors in the collection
func (c *LayerErrorCollection) HasErrors() bool { return len(c.Errors) > 0 }

// Count returns the number of errors in the collection
func (c *LayerErrorCollection) Count() int { return len(c.Errors) }

// Add appends err, unwrapping it to a LayerParseError when possible.
func (c *LayerErrorCollection) Add(path string, kind Kind, err error) {
	var pe *LayerParseError
	if errors.As(err, &pe) {
		c.Errors = append(c.Errors, pe)
		return
	}
	c.Errors = append(c.Errors, &LayerParseError{
		Path: path, Kind: kind, ErrorType: ErrorTypeIO, Message: err.Error(), Err: err,
	})
}

// ByKind returns errors filtered by layer kind.
func (c *LayerErrorCollection) ByKind(kind Kind) []*LayerParseError {
	var out []*LayerParseError
	for _, e := range c.Errors {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// DetailedReport returns a report of every error.
func (c *LayerErrorCollection) DetailedReport() string {
	if len(c.Errors) == 0 {
		return "No configuration errors to report"
	}
	parts := []string{
		fmt.Sprintf("Detailed Configuration Error Report (%d errors):", len(c.Errors)),
		strings.Repeat("=", 60),
	}
	for i, e := range c.Errors {
		parts = append(parts, fmt.Sprintf("\nError %d:", i+1), e.DetailedError())
		if i < len(c.Errors)-1 {
			parts = append(parts, strings.Repeat("-", 40))
		}
	}
	return strings.Join(parts, "\n")
}
