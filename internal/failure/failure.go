// Package failure defines the error taxonomy shared by the conversion stages.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a conversion failure.
type Kind string

const (
	MalformedXML              Kind = "malformed_xml"
	MissingRequiredPart       Kind = "missing_required_part"
	StyleCycle                Kind = "style_cycle"
	UnresolvedStyle           Kind = "unresolved_style"
	UnresolvedSectionHeading  Kind = "unresolved_section_heading"
	MathRenderFailure         Kind = "math_render_failure"
	ExternalExtractionFailure Kind = "external_extraction_failure"
	InvalidInput              Kind = "invalid_input"
)

// Fatal reports whether a failure of this kind aborts the whole conversion.
func (k Kind) Fatal() bool {
	switch k {
	case MalformedXML, MissingRequiredPart, StyleCycle, InvalidInput:
		return true
	}
	return false
}

// Error is a classified failure with an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a failure of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Message returns the human message of the first *Error in err's chain,
// falling back to err.Error().
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		if fe.Err != nil {
			return fe.Msg + ": " + fe.Err.Error()
		}
		return fe.Msg
	}
	return err.Error()
}
