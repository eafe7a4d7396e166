package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no script or settings row matches
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a script ID is already taken
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidInput is returned when a value breaks a column CHECK, such as
	// a font size outside its bounds
	ErrInvalidInput = errors.New("invalid input")
)

// IsNotFound reports whether err means the record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a primary key or unique conflict
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsInvalidInput reports whether err is a rejected value
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// MapGormError translates GORM and SQLite errors into the errors above.
// Errors it does not recognise are returned unchanged.
func MapGormError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "primary key constraint"):
		return ErrDuplicate
	case strings.Contains(msg, "check constraint"):
		return ErrInvalidInput
	}
	return err
}
