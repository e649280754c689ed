package credentials

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no resolution source is triggered.
var ErrNotFound = errors.New("no AWS credentials found in environment, credentials file, or instance metadata")

// FileError reports a credentials file that exists but cannot be used:
// unparseable, missing the requested profile, or missing a required key.
type FileError struct {
	Path    string
	Profile string
	Cause   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("credentials file %s, profile %q: %v", e.Path, e.Profile, e.Cause)
}

func (e *FileError) Unwrap() error {
	return e.Cause
}
