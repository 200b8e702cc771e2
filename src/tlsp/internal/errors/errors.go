package errors

import stderr "errors"

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

var (
	// ErrNoConnectionInContext reports that a context carries no editor connection UUID.
	ErrNoConnectionInContext = New("no connection found in context")
	// ErrSessionStopped reports work submitted to a session that is no longer running.
	ErrSessionStopped = New("language server session stopped")
)

// IsBadRequest reports whether the error is a bad request from the caller.
func IsBadRequest(e error) bool {
	return stderr.Is(e, ErrNoConnectionInContext)
}
