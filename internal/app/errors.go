package app

import (
	"errors"
	"fmt"
	"strings"

	"hawk/internal/component"
)

var (
	// ErrStillReferenced is wrapped by ReferencedError.
	ErrStillReferenced = errors.New("component is still referenced")

	// ErrNotRegistered is returned when a directory layer is edited for an unregistered directory.
	ErrNotRegistered = errors.New("directory is not registered")
)

// ReferencedError is returned by Remove when config layers still name the
// component and scrubbing was not requested.
type ReferencedError struct {
	Identity component.Identity
	// Layers are the paths of the documents naming the component.
	Layers []string
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("%s %s is still referenced by %d layer(s): %s (pass --scrub to remove the references)",
		e.Identity.Type.Singular(), e.Identity, len(e.Layers), strings.Join(e.Layers, ", "))
}

// Unwrap allows errors.Is(err, ErrStillReferenced).
func (e *ReferencedError) Unwrap() error { return ErrStillReferenced }
