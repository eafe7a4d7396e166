package prompter

import "errors"

// Prompter session errors
var (
	// ErrSessionNotFound indicates no open session has the requested ID
	ErrSessionNotFound = errors.New("prompter session not found")

	// ErrSessionClosed indicates the session has been closed and no longer accepts commands
	ErrSessionClosed = errors.New("prompter session is closed")

	// ErrManagerStopped indicates the session manager has been shut down
	ErrManagerStopped = errors.New("prompter session manager has been stopped")

	// ErrInvalidViewport indicates a viewport with negative dimensions
	ErrInvalidViewport = errors.New("viewport dimensions must be non-negative")
)

// IsSessionNotFound checks if the error is a session not found error
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// IsSessionClosed checks if the error is a closed session error
func IsSessionClosed(err error) bool {
	return errors.Is(err, ErrSessionClosed)
}
