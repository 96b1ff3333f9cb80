package validation

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField reports a required submission field left blank.
	ErrMissingField = errors.New("validation: missing required field")
	// ErrInvalidField reports a field present in an unusable form.
	ErrInvalidField = errors.New("validation: invalid field")
	// ErrInvalidTitle reports a title that yields an empty slug.
	ErrInvalidTitle = errors.New("validation: title does not produce a usable slug")
)

// MissingFieldError names the first required field found blank.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("validation: missing required field %q", e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// InvalidFieldError names a field whose value failed a format rule.
type InvalidFieldError struct {
	Field string
	Err   error
}

func (e *InvalidFieldError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("validation: invalid field %q", e.Field)
	}
	return fmt.Sprintf("validation: invalid field %q: %v", e.Field, e.Err)
}

func (e *InvalidFieldError) Unwrap() error {
	return ErrInvalidField
}

// Field extracts the offending field name from a validation error.
func Field(err error) string {
	var missing *MissingFieldError
	if errors.As(err, &missing) {
		return missing.Field
	}
	var invalid *InvalidFieldError
	if errors.As(err, &invalid) {
		return invalid.Field
	}
	if errors.Is(err, ErrInvalidTitle) {
		return "title"
	}
	return ""
}
