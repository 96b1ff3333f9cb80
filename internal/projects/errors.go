package projects

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that no record exists for a slug.
	ErrNotFound = errors.New("projects: record not found")
	// ErrMalformedRecord reports a record file that exists but cannot be decoded.
	ErrMalformedRecord = errors.New("projects: malformed record")
	// ErrSlugConflict reports that a record with the same slug already exists.
	ErrSlugConflict = errors.New("projects: slug already exists")
	// ErrInvalidRecord reports a record that cannot be written as given.
	ErrInvalidRecord = errors.New("projects: invalid record")
)

// NotFoundError carries the slug that could not be resolved.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("projects: record %q not found", e.Slug)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// MalformedRecordError describes why a record file failed to decode. Field is
// empty when the front matter block itself is missing or unparsable.
type MalformedRecordError struct {
	Slug  string
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("projects: record %q field %q: %v", e.Slug, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("projects: record %q missing field %q", e.Slug, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("projects: record %q: %v", e.Slug, e.Err)
	default:
		return fmt.Sprintf("projects: record %q is malformed", e.Slug)
	}
}

func (e *MalformedRecordError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedRecord}
	}
	return []error{ErrMalformedRecord, e.Err}
}

// ConflictError carries the slug and path that already exist.
type ConflictError struct {
	Slug string
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("projects: record %q already exists at %s", e.Slug, e.Path)
}

func (e *ConflictError) Unwrap() error {
	return ErrSlugConflict
}
