package models

import (
	"errors"
	"os"
)

var (
	// ErrConfiguration: zero category counts, indivisible dimensions, missing
	// colors, or a label count that does not match the position grid.
	ErrConfiguration = errors.New("configuration error")
	// ErrBoundsExceeded: generated positions fall outside the caller's screen bounds.
	ErrBoundsExceeded = errors.New("bounds exceeded")
	// ErrMalformedGrid: a grid is empty or ragged, or a value's cells do not form a rectangle.
	ErrMalformedGrid = errors.New("malformed grid")
)

// Code is a short error classification used for log fields and exit codes.
type Code string

const (
	CodeUnknown       Code = "unknown"
	CodeConfiguration Code = "configuration"
	CodeBounds        Code = "bounds"
	CodeMalformedGrid Code = "malformed-grid"
	CodeIO            Code = "io"
)

// Classify maps an error onto its Code using only sentinel and stdlib error types.
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, ErrConfiguration):
		return CodeConfiguration
	case errors.Is(err, ErrBoundsExceeded):
		return CodeBounds
	case errors.Is(err, ErrMalformedGrid):
		return CodeMalformedGrid
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

// ExitCode returns the process exit status for an error class.
func (c Code) ExitCode() int {
	switch c {
	case CodeConfiguration:
		return 2
	case CodeBounds:
		return 3
	case CodeMalformedGrid:
		return 4
	case CodeIO:
		return 5
	}
	return 1
}
