package errors

import (
	"errors"
	"fmt"
)

// CompileCode classifies a compile-time failure.
type CompileCode string

const (
	// ErrInvalidSchema indicates a keyword has the wrong type or shape
	// for its draft.
	ErrInvalidSchema CompileCode = "invalid-schema"
	// ErrUnresolvableReference indicates a reference target does not
	// exist.
	ErrUnresolvableReference CompileCode = "unresolvable-reference"
	// ErrRetrievalFailed indicates the external retrieval capability
	// returned an error.
	ErrRetrievalFailed CompileCode = "retrieval-failed"
	// ErrUnknownSpecification indicates an unrecognized $schema URI
	// with no configured default draft.
	ErrUnknownSpecification CompileCode = "unknown-specification"
	// ErrResolutionDepthExceeded indicates the defensive cap on
	// reference resolution depth was hit.
	ErrResolutionDepthExceeded CompileCode = "resolution-depth-exceeded"
)

// Compile is a terminal compile-time error. A failed compile yields no
// usable schema.
type Compile struct {
	Code CompileCode
	// Location is the schema location (URI and/or JSON Pointer) the
	// failure was detected at, when known.
	Location string
	Message  string
	// Err is the underlying cause, if any.
	Err error
}

// Error formats the compile error for display.
func (e *Compile) Error() string {
	if e == nil {
		return "compile <nil>"
	}
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Location != "" {
		msg += fmt.Sprintf(" at %s", e.Location)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Compile) Unwrap() error { return e.Err }

// NewCompile builds a compile error with a formatted message.
func NewCompile(code CompileCode, location, format string, args ...any) *Compile {
	return &Compile{Code: code, Location: location, Message: fmt.Sprintf(format, args...)}
}

// WrapCompile builds a compile error around an underlying cause.
func WrapCompile(code CompileCode, location string, err error, format string, args ...any) *Compile {
	return &Compile{Code: code, Location: location, Message: fmt.Sprintf(format, args...), Err: err}
}

// AsCompile extracts a *Compile from an error chain.
func AsCompile(err error) (*Compile, bool) {
	if err == nil {
		return nil, false
	}
	var c *Compile
	if errors.As(err, &c) && c != nil {
		return c, true
	}
	return nil, false
}
