// Package diag holds the error taxonomy shared by the graph builder, the map
// collector and the resolver.
package diag

import (
	"errors"
	"fmt"
)

// Code classifies a failure
type Code string

const (
	// MissingRoot: a required top-level path is absent. Fatal.
	MissingRoot Code = "missing_root"
	// UnreadableFile: one asset failed to open or parse. Recovered.
	UnreadableFile Code = "unreadable_file"
	// UnresolvedReference: a referenced file is not on disk. Recovered.
	UnresolvedReference Code = "unresolved_reference"
	// ArchiveCorrupt: a pack archive was skipped. Recovered.
	ArchiveCorrupt Code = "archive_corrupt"
	// CycleDetected: an instance was already visited. Recovered.
	CycleDetected Code = "cycle_detected"
	// DestinationCreate: the output tree could not be created. Fatal.
	DestinationCreate Code = "destination_create"
)

// Fatal reports whether a code aborts the whole operation
func (c Code) Fatal() bool {
	return c == MissingRoot || c == DestinationCreate
}

// Warning is a recovered condition attached to a result
type Warning struct {
	Code    Code   `json:"code" yaml:"code"`
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
	// From is the file whose reference produced the warning, if any
	From string `json:"from,omitempty" yaml:"from,omitempty"`
}

func (w Warning) String() string {
	if w.From != "" {
		return fmt.Sprintf("%s: %s (referenced by %s): %s", w.Code, w.Path, w.From, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Code, w.Path, w.Message)
}

// Warnings accumulates warnings in order
type Warnings []Warning

// Add appends a warning built from err
func (ws *Warnings) Add(code Code, path string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	*ws = append(*ws, Warning{Code: code, Path: path, Message: msg})
}

// AddFrom appends a warning for a reference made by from
func (ws *Warnings) AddFrom(code Code, path, from, msg string) {
	*ws = append(*ws, Warning{Code: code, Path: path, From: from, Message: msg})
}

// Count returns how many warnings carry code
func (ws Warnings) Count(code Code) int {
	n := 0
	for _, w := range ws {
		if w.Code == code {
			n++
		}
	}
	return n
}

// Error is a fatal failure of a whole operation
type Error struct {
	Code    Code
	Path    string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Path, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Path)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// New creates an Error
func New(code Code, path string, err error) *Error {
	return &Error{Code: code, Path: path, Wrapped: err}
}

// CodeOf extracts the code of an Error in err's chain, or ""
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsMissingRoot checks if an error is a missing top-level input
func IsMissingRoot(err error) bool {
	return CodeOf(err) == MissingRoot
}

// IsDestinationCreate checks if an error is a destination creation failure
func IsDestinationCreate(err error) bool {
	return CodeOf(err) == DestinationCreate
}
