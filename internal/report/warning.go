// Package report defines the non-fatal warning record shared by the loader,
// resolver, adapters and sync engine.
package report

import "fmt"

// Code classifies a warning.
type Code string

const (
	CodeUnresolvable    Code = "unresolvable-reference"
	CodeAmbiguous       Code = "ambiguous-reference"
	CodeInvalidMeta     Code = "invalid-component"
	CodeUnknownEvent    Code = "unknown-event"
	CodeProfileNotFound Code = "profile-not-found"
	CodeProfileCycle    Code = "profile-cycle"
	CodeUnsupported     Code = "unsupported"
	CodeDisabled        Code = "destination-disabled"
	CodeConflict        Code = "conflict"
	CodeIO              Code = "io-error"
)

// Warning is a non-fatal condition attached to a resolve or sync result.
type Warning struct {
	Code Code `json:"code" yaml:"code"`
	// Scope is where the warning arose: a layer scope, a tool name or a path.
	Scope string `json:"scope,omitempty" yaml:"scope,omitempty"`
	// Subject is the offending reference, event or path.
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// String renders the warning on one line.
func (w Warning) String() string {
	if w.Scope == "" {
		return fmt.Sprintf("[%s] %s", w.Code, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Code, w.Scope, w.Message)
}

// Newf builds a warning with a formatted message.
func Newf(code Code, scope, subject, format string, args ...interface{}) Warning {
	return Warning{Code: code, Scope: scope, Subject: subject, Message: fmt.Sprintf(format, args...)}
}
