// Package errs holds the error categories shared by the reporting tools.
//
// Errors are wrapped with context, keeping the category first:
//
//	fmt.Errorf("%w: reading %q: %w", errs.ErrInput, path, err)
//
// so callers can test the category with errors.Is.
package errs

import "errors"

var (
	// ErrConfig is a missing or unusable credential or configuration file.
	ErrConfig = errors.New("configuration error")
	// ErrRemote is a failure talking to REDCap, or a malformed response.
	ErrRemote = errors.New("remote service error")
	// ErrInput is a missing or malformed local file or argument.
	ErrInput = errors.New("input error")
)
