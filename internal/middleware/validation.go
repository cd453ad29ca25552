// Package middleware provides HTTP middleware for the profile API.
package middleware

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

// Validation limits.
const (
	// MaxUserIDLength is the maximum length of a user id in bytes.
	MaxUserIDLength = 128

	// MaxPropertyNameLength is the maximum length of a property name in bytes.
	MaxPropertyNameLength = 128

	// MaxPropertiesPerCommand caps how many properties one command may touch.
	MaxPropertiesPerCommand = 500

	// MaxProjectedProperties caps the ?properties= projection list.
	MaxProjectedProperties = 100
)

// Validation errors.
var (
	ErrUserIDEmpty         = errors.New("user id is required")
	ErrUserIDTooLong       = errors.New("user id exceeds maximum length")
	ErrUserIDInvalid       = errors.New("user id contains invalid characters")
	ErrPropertyNameEmpty   = errors.New("property name must not be empty")
	ErrPropertyNameTooLong = errors.New("property name exceeds maximum length")
	ErrPropertyNameInvalid = errors.New("property name contains invalid characters")
	ErrTooManyProperties   = errors.New("too many properties")
)

// ValidateUserID validates a user id taken from a path or request body.
func ValidateUserID(id string) error {
	if id == "" {
		return ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLength {
		return ErrUserIDTooLong
	}
	if !printable(id) {
		return ErrUserIDInvalid
	}
	return nil
}

// ValidatePropertyName validates one property key. Names are case-sensitive
// and otherwise free-form.
func ValidatePropertyName(name string) error {
	if name == "" {
		return ErrPropertyNameEmpty
	}
	if len(name) > MaxPropertyNameLength {
		return ErrPropertyNameTooLong
	}
	if !printable(name) {
		return ErrPropertyNameInvalid
	}
	return nil
}

// ValidatePropertyCount checks the number of properties in a command.
func ValidatePropertyCount(n int) error {
	if n > MaxPropertiesPerCommand {
		return ErrTooManyProperties
	}
	return nil
}

// printable rejects invalid UTF-8 and control characters.
func printable(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
