package vcs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrGitOperationFailed is wrapped by every *GitError.
var ErrGitOperationFailed = errors.New("vcs: git operation failed")

// ErrNoPaths is returned when a path-scoped operation receives no paths.
var ErrNoPaths = errors.New("vcs: no paths given")

// GitError describes a failed git invocation. Err wraps
// ErrGitOperationFailed and the underlying cause, which is the context error
// when the command was cut short by a deadline or cancellation.
type GitError struct {
	Operation string
	Args      []string
	Output    string
	ExitCode  int
	Err       error
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s failed", e.Operation)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg = fmt.Sprintf("%s: %s", msg, out)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GitError) Unwrap() error {
	return e.Err
}
