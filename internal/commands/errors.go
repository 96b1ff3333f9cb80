package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-portfolio/internal/projects"
	"github.com/goliatone/go-portfolio/internal/uploads"
	"github.com/goliatone/go-portfolio/internal/validation"
)

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"
	projectInvalidCode      = "PROJECT_INVALID"
	projectNotFoundCode     = "PROJECT_NOT_FOUND"
	projectConflictCode     = "PROJECT_SLUG_CONFLICT"
	projectMalformedCode    = "PROJECT_MALFORMED"
)

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
}

// wrapExecuteError tags domain failures with their own category.
func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}

	switch {
	case errors.Is(err, validation.ErrMissingField),
		errors.Is(err, validation.ErrInvalidField),
		errors.Is(err, validation.ErrInvalidTitle):
		wrapped := goerrors.Wrap(err, goerrors.CategoryValidation, "project rejected").
			WithTextCode(projectInvalidCode)
		if field := validation.Field(err); field != "" {
			wrapped.ValidationErrors = goerrors.ValidationErrors{{Field: field, Message: err.Error()}}
		}
		return wrapped
	case errors.Is(err, uploads.ErrUnsupportedImage), errors.Is(err, uploads.ErrImageTooLarge):
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "image rejected").
			WithTextCode(projectInvalidCode)
	case errors.Is(err, projects.ErrNotFound):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "project not found").
			WithTextCode(projectNotFoundCode)
	case errors.Is(err, projects.ErrSlugConflict):
		return goerrors.Wrap(err, goerrors.CategoryConflict, "project already exists").
			WithTextCode(projectConflictCode)
	case errors.Is(err, projects.ErrMalformedRecord):
		return goerrors.Wrap(err, goerrors.CategoryInternal, "project file is malformed").
			WithTextCode(projectMalformedCode)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(commandExecuteFailed)
}
