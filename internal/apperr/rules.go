package apperr

import (
	"regexp"
	"strings"
)

// MinPasswordLength is the shortest password accepted at registration, login and password change.
const MinPasswordLength = 6

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// Required fails when value is blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return Invalid(field, "is required")
	}
	return nil
}

// Email fails when value is blank or not shaped like an address.
func Email(field, value string) error {
	if err := Required(field, value); err != nil {
		return err
	}
	if !emailPattern.MatchString(strings.TrimSpace(value)) {
		return Invalid(field, "must be a valid email")
	}
	return nil
}

// Password fails when value is shorter than MinPasswordLength.
func Password(field, value string) error {
	if len(value) < MinPasswordLength {
		return Invalid(field, "must be at least 6 characters")
	}
	return nil
}

// Phone fails when value is not 7 to 15 digits with an optional leading +.
func Phone(field, value string) error {
	if !phonePattern.MatchString(strings.TrimSpace(value)) {
		return Invalid(field, "must be a valid phone number")
	}
	return nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
