// Package errors defines the error model of the jsonschema module: the
// validation error with lazily materialized locations, and the typed
// compile-time errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Validation describes one failed constraint. InstanceLocation and
// KeywordLocation are JSON Pointers materialized from captured path
// segments only when asked for, so producing a Validation during tree
// evaluation does not pay for string construction.
type Validation struct {
	// Keyword is the schema keyword that failed, e.g. "maximum".
	Keyword string
	// Message is a human-readable description of the failure.
	Message string
	// Causes holds sub-errors for combinator keywords: each failing
	// anyOf/oneOf branch contributes its own error tree.
	Causes []*Validation

	instancePath []string
	keywordPath  []string
}

// NewValidation builds a Validation from a keyword, message, and the
// path segments captured at the failure site. The segment slices are
// retained, not copied; callers must pass stable snapshots.
func NewValidation(keyword, message string, instancePath, keywordPath []string) *Validation {
	return &Validation{
		Keyword:      keyword,
		Message:      message,
		instancePath: instancePath,
		keywordPath:  keywordPath,
	}
}

// InstanceLocation returns the JSON Pointer to the instance value that
// failed.
func (v *Validation) InstanceLocation() string {
	return pointerString(v.instancePath)
}

// KeywordLocation returns the JSON Pointer through the schema keywords
// that led to the failure, following the dynamic evaluation path.
func (v *Validation) KeywordLocation() string {
	return pointerString(v.keywordPath)
}

// Error formats the validation for display.
func (v *Validation) Error() string {
	if v == nil {
		return "validation <nil>"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s", v.Keyword, v.Message))
	if loc := v.InstanceLocation(); loc != "" {
		b.WriteString(fmt.Sprintf(" at %s", loc))
	}
	return b.String()
}

// AsValidation extracts a *Validation from an error chain.
func AsValidation(err error) (*Validation, bool) {
	if err == nil {
		return nil, false
	}
	var v *Validation
	if errors.As(err, &v) && v != nil {
		return v, true
	}
	return nil, false
}

func pointerString(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(escapeSegment(s))
	}
	return b.String()
}

func escapeSegment(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
