package source

import (
	"errors"
	"fmt"
)

// Common source adapter errors
var (
	// ErrUnsupportedFormat is returned when an uploaded file has an extension
	// no adapter can parse.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrRemote is returned when a paginated remote source answers any page
	// with a non-success response. Results from earlier pages are discarded.
	ErrRemote = errors.New("remote source request failed")
)

// RemoteError carries the context of a failed remote page fetch.
type RemoteError struct {
	// Op is the operation that failed (e.g., "LoadDatabase").
	Op string

	// StatusCode is the HTTP status of the failing response, 0 when the
	// request itself failed.
	StatusCode int

	// Page is the zero-based index of the failing page.
	Page int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("source: %s failed: page %d returned status %d", e.Op, e.Page, e.StatusCode)
	}
	return fmt.Sprintf("source: %s failed on page %d: %v", e.Op, e.Page, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RemoteError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrRemote
}

// Is implements error matching for errors.Is.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}
