package component

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a reference matches no store entry.
	ErrNotFound = errors.New("component not found")
	// ErrAmbiguous is returned when an unqualified reference matches several entries.
	ErrAmbiguous = errors.New("ambiguous component reference")
)

// AmbiguousError lists the candidates of an ambiguous reference.
type AmbiguousError struct {
	Type       Type
	Ref        string
	Candidates []Identity
}

func (e *AmbiguousError) Error() string {
	names := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		names = append(names, c.String())
	}
	return fmt.Sprintf("%s %q is ambiguous, qualify it with a package: %s",
		e.Type.Singular(), e.Ref, strings.Join(names, ", "))
}

// Unwrap allows errors.Is(err, ErrAmbiguous).
func (e *AmbiguousError) Unwrap() error { return ErrAmbiguous }

// MetadataError reports an entry whose metadata could not be parsed.
type MetadataError struct {
	Path   string
	Reason error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("invalid component metadata in %s: %v", e.Path, e.Reason)
}

func (e *MetadataError) Unwrap() error { return e.Reason }
