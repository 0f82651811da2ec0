// Package diagnostic collects coded errors and warnings produced while
// validating or converting a specification.
package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Severity of a diagnostic
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is a single finding
type Diagnostic struct {
	Severity Severity `json:"severity"`
	// Code identifies the kind of finding, e.g. "dangling_capture_base".
	Code string `json:"code"`
	// Message is meant for direct display to the user.
	Message string `json:"message"`
	// Path locates the finding in the document, e.g. "overlays[3]".
	Path string `json:"path,omitempty"`
}

// Diagnostics holds all findings of one run
type Diagnostics struct {
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
}

// New returns empty diagnostics
func New() *Diagnostics {
	return &Diagnostics{
		Errors:   []Diagnostic{},
		Warnings: []Diagnostic{},
	}
}

// AddError records an error
func (d *Diagnostics) AddError(code, message, path string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  message,
		Path:     path,
	})
}

// AddWarning records a warning
func (d *Diagnostics) AddWarning(code, message, path string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  message,
		Path:     path,
	})
}

// Merge appends another set of findings
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// HasCode reports whether any error or warning carries code
func (d *Diagnostics) HasCode(code string) bool {
	for _, e := range d.Errors {
		if e.Code == code {
			return true
		}
	}
	for _, w := range d.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Err joins all errors into one, or returns nil when valid
func (d *Diagnostics) Err() error {
	if d.IsValid() {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}
	return errors.New(strings.Join(parts, "; "))
}

// String formats the diagnostic as "path: [code] message"
func (d Diagnostic) String() string {
	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}
	if d.Path != "" {
		return d.Path + ": " + msg
	}
	return msg
}
