package errors

import (
	stderr "errors"
	"fmt"
)

// NotFoundError reports an executable that does not exist on disk or on the search path.
type NotFoundError struct {
	Tool string
	Path string
	// Configured is true when Path came from the user's settings.
	Configured bool
}

// Error is an implementation of the error interface.
func (e *NotFoundError) Error() string {
	if e.Configured {
		return fmt.Sprintf("Could not find executable at '%s'", e.Path)
	}
	return fmt.Sprintf("Could not find '%s' on the search path", e.Path)
}

// ExecutionError reports an executable that exists but failed or produced unusable output.
type ExecutionError struct {
	Tool  string
	Path  string
	Cause error
}

// Error is an implementation of the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("Executable at '%s' failed: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying failure.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// VersionTooOldError reports a tool whose version is below the supported minimum.
type VersionTooOldError struct {
	Tool    string
	Version string
	Minimum string
}

// Error is an implementation of the error interface.
func (e *VersionTooOldError) Error() string {
	return fmt.Sprintf("%s version %s is too old; version %s or newer is required", e.Tool, e.Version, e.Minimum)
}

// ConfigurationError reports a setting with an unexpected shape.
type ConfigurationError struct {
	Setting  string
	Expected string
}

// Error is an implementation of the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("Invalid setting '%s': expected %s", e.Setting, e.Expected)
}

// IsNotFound reports whether a NotFoundError is part of the error chain.
func IsNotFound(e error) bool {
	var nf *NotFoundError
	return stderr.As(e, &nf)
}

// IsVersionTooOld reports whether a VersionTooOldError is part of the error chain.
func IsVersionTooOld(e error) bool {
	var v *VersionTooOldError
	return stderr.As(e, &v)
}

// ConfigurationSetting returns the offending setting if a ConfigurationError is part of the error chain.
func ConfigurationSetting(e error) (_ string, ok bool) {
	var ce *ConfigurationError
	if !stderr.As(e, &ce) {
		return "", false
	}
	return ce.Setting, true
}
