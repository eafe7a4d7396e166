package rewrite

import "errors"

// Rewrite errors
var (
	// ErrEmptyText indicates there is no script text to rewrite
	ErrEmptyText = errors.New("script text is empty")

	// ErrInvalidTone indicates an unsupported tone
	ErrInvalidTone = errors.New("tone must be one of: engaging, professional, funny")

	// ErrAPIKeyMissing indicates the Gemini client has no API key
	ErrAPIKeyMissing = errors.New("API key missing")

	// ErrNotConfigured indicates the service has no rewriter
	ErrNotConfigured = errors.New("AI rewrite is not configured")
)

// IsUnavailable checks if the error means the rewrite backend cannot be used right now
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrAPIKeyMissing) || errors.Is(err, ErrCircuitOpen)
}
