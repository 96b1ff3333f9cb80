// Package vcstest provides an in-memory version control backend for tests.
package vcstest

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// Fake records every call and keeps an index of staged paths. Errors and
// delays are configured per operation before use.
type Fake struct {
	mu sync.Mutex

	Repository bool
	Ident      interfaces.Identity

	IdentityErr error
	StageErr    map[string]error
	StatusErr   error
	CommitErr   error
	PushErr     error

	// PushDelay blocks Push until it elapses or ctx ends.
	PushDelay time.Duration
	// Clean makes PendingChanges report nothing even after staging, as
	// happens when the staged content matches HEAD.
	Clean bool

	Calls   []string
	staged  []string
	Commits []string
	// CommittedPaths holds the staged names each commit recorded.
	CommittedPaths [][]string
	Pushes         []string

	active    int
	maxActive int
}

var _ interfaces.VersionControl = (*Fake)(nil)

// New returns a configured repository with a complete identity.
func New() *Fake {
	return &Fake{
		Repository: true,
		Ident:      interfaces.Identity{Name: "Portfolio", Email: "portfolio@example.com"},
		StageErr:   map[string]error{},
	}
}

func (f *Fake) enter(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
	f.active++
	f.maxActive = max(f.maxActive, f.active)
}

func (f *Fake) leave() {
	f.mu.Lock()
	f.active--
	f.mu.Unlock()
}

// MaxConcurrent reports the highest number of overlapping calls observed.
func (f *Fake) MaxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

// CallLog returns a copy of the recorded call names.
func (f *Fake) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Calls)
}

func (f *Fake) IsRepository(ctx context.Context) bool {
	f.enter("is_repository")
	defer f.leave()
	return f.Repository && ctx.Err() == nil
}

func (f *Fake) Identity(ctx context.Context) (interfaces.Identity, error) {
	f.enter("identity")
	defer f.leave()
	if f.IdentityErr != nil {
		return interfaces.Identity{}, f.IdentityErr
	}
	return f.Ident, ctx.Err()
}

func (f *Fake) Stage(ctx context.Context, path string) error {
	f.enter("stage")
	defer f.leave()
	if err := f.StageErr[path]; err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.staged = append(f.staged, filepath.Base(path))
	f.mu.Unlock()
	return nil
}

// StageExternal adds names to the index as if staged outside the
// synchronizer.
func (f *Fake) StageExternal(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staged = append(f.staged, names...)
}

// Staged returns the names currently in the index.
func (f *Fake) Staged() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.staged)
}

func (f *Fake) PendingChanges(ctx context.Context, paths []string) ([]string, error) {
	f.enter("pending_changes")
	defer f.leave()
	if f.StatusErr != nil {
		return nil, f.StatusErr
	}
	if f.Clean {
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selectStaged(paths), ctx.Err()
}

func (f *Fake) Commit(ctx context.Context, message string, paths []string) error {
	f.enter("commit")
	defer f.leave()
	if f.CommitErr != nil {
		return f.CommitErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	committed := f.selectStaged(paths)
	f.Commits = append(f.Commits, message)
	f.CommittedPaths = append(f.CommittedPaths, committed)
	f.staged = slices.DeleteFunc(f.staged, func(name string) bool {
		return slices.Contains(committed, name)
	})
	return nil
}

// selectStaged returns the staged names matching the base names of paths.
// Callers hold f.mu.
func (f *Fake) selectStaged(paths []string) []string {
	var out []string
	for _, name := range f.staged {
		for _, p := range paths {
			if filepath.Base(p) == name {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

func (f *Fake) Push(ctx context.Context, branch string) error {
	f.enter("push")
	defer f.leave()
	if f.PushDelay > 0 {
		select {
		case <-time.After(f.PushDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.PushErr != nil {
		return f.PushErr
	}
	f.mu.Lock()
	f.Pushes = append(f.Pushes, branch)
	f.mu.Unlock()
	return nil
}
