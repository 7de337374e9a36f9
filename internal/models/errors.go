package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrConfig ErrorType = iota
	ErrReleaseList
	ErrDownload
	ErrMirror
	ErrIndexWrite
	ErrSigning
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrConfig:
		return "Config"
	case ErrReleaseList:
		return "ReleaseList"
	case ErrDownload:
		return "Download"
	case ErrMirror:
		return "Mirror"
	case ErrIndexWrite:
		return "IndexWrite"
	case ErrSigning:
		return "Signing"
	default:
		return "Unknown"
	}
}

// BuildError represents a fatal error during index generation. Per-asset
// problems (unreadable archives, missing or unparseable manifests, duplicate
// versions) are not BuildErrors; the scanner logs those and moves on.
type BuildError struct {
	Type   ErrorType
	Source string
	Err    error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Source, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *BuildError) Unwrap() error {
	return e.Err
}
