package interfaces

import (
	"context"
	"strings"
)

// Identity is the author identity git will record on commits.
type Identity struct {
	Name  string
	Email string
}

// Complete reports whether both name and email are set.
func (i Identity) Complete() bool {
	return strings.TrimSpace(i.Name) != "" && strings.TrimSpace(i.Email) != ""
}

// VersionControl is the narrow surface the synchronizer needs from a
// repository backend. Every call is expected to honour ctx deadlines.
type VersionControl interface {
	// IsRepository reports whether the configured directory is inside a
	// working tree. Any failure counts as false.
	IsRepository(ctx context.Context) bool
	// Identity returns the configured commit author.
	Identity(ctx context.Context) (Identity, error)
	// Stage adds a single path to the index.
	Stage(ctx context.Context, path string) error
	// PendingChanges lists which of paths are staged with changes.
	PendingChanges(ctx context.Context, paths []string) ([]string, error)
	// Commit records paths with the supplied message, leaving any other
	// staged entries untouched.
	Commit(ctx context.Context, message string, paths []string) error
	// Push publishes the branch to the configured remote.
	Push(ctx context.Context, branch string) error
}
