package script

import "errors"

// Custom script service errors
var (
	// ErrScriptNotFound indicates the requested script does not exist
	ErrScriptNotFound = errors.New("script not found")

	// ErrTitleRequired indicates the title is empty after trimming
	ErrTitleRequired = errors.New("script title is required")

	// ErrTitleTooLong indicates the title exceeds the maximum length
	ErrTitleTooLong = errors.New("script title must be at most 255 characters")

	// ErrInvalidBackup indicates an import document could not be read
	ErrInvalidBackup = errors.New("invalid script backup")
)

// IsScriptNotFound checks if the error is a script not found error
func IsScriptNotFound(err error) bool {
	return errors.Is(err, ErrScriptNotFound)
}

// IsValidationError checks if the error is caused by invalid script input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrTitleRequired) || errors.Is(err, ErrTitleTooLong) || errors.Is(err, ErrInvalidBackup)
}
