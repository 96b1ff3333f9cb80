package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

const (
	defaultBinary = "git"
	defaultRemote = "origin"
	// waitDelay bounds how long Wait lingers on pipes held open by helpers
	// such as ssh after git itself has been killed.
	waitDelay = 2 * time.Second
)

// Git drives the git CLI against one working tree. Arguments are passed as
// argv; no shell is involved.
type Git struct {
	dir      string
	binary   string
	remote   string
	executor CommandExecutor
	logger   interfaces.Logger
}

var _ interfaces.VersionControl = (*Git)(nil)

// Option customises Git.
type Option func(*Git)

// WithExecutor swaps the command executor.
func WithExecutor(executor CommandExecutor) Option {
	return func(g *Git) {
		if executor != nil {
			g.executor = executor
		}
	}
}

// WithRemote sets the push remote. Defaults to origin.
func WithRemote(remote string) Option {
	return func(g *Git) {
		if remote = strings.TrimSpace(remote); remote != "" {
			g.remote = remote
		}
	}
}

// WithBinary sets the git executable.
func WithBinary(binary string) Option {
	return func(g *Git) {
		if binary = strings.TrimSpace(binary); binary != "" {
			g.binary = binary
		}
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger interfaces.Logger) Option {
	return func(g *Git) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGit returns a backend rooted at dir.
func NewGit(dir string, opts ...Option) *Git {
	g := &Git{
		dir:      dir,
		binary:   defaultBinary,
		remote:   defaultRemote,
		executor: NewExecExecutor(),
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dir returns the working tree directory.
func (g *Git) Dir() string {
	return g.dir
}

// IsRepository implements interfaces.VersionControl.
func (g *Git) IsRepository(ctx context.Context) bool {
	out, err := g.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		g.logger.Debug("vcs.rev_parse.failed", "dir", g.dir, "error", err)
		return false
	}
	return strings.TrimSpace(out) == "true"
}

// Identity implements interfaces.VersionControl. Unset keys come back empty
// rather than as errors.
func (g *Git) Identity(ctx context.Context) (interfaces.Identity, error) {
	name, err := g.configValue(ctx, "user.name")
	if err != nil {
		return interfaces.Identity{}, err
	}
	email, err := g.configValue(ctx, "user.email")
	if err != nil {
		return interfaces.Identity{}, err
	}
	return interfaces.Identity{Name: name, Email: email}, nil
}

func (g *Git) configValue(ctx context.Context, key string) (string, error) {
	out, err := g.run(ctx, "config", "--get", key)
	if err != nil {
		var gitErr *GitError
		// git config exits 1 when the key is not set.
		if errors.As(err, &gitErr) && gitErr.ExitCode == 1 && ctx.Err() == nil {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Stage implements interfaces.VersionControl. Relative paths are resolved
// against the process working directory, not the repository.
func (g *Git) Stage(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("vcs: resolve %s: %w", path, err)
	}
	_, err = g.run(ctx, "add", "--", abs)
	return err
}

// PendingChanges implements interfaces.VersionControl using the index only,
// so unrelated edits in the working tree never trigger a commit. Only paths
// are inspected; other staged entries are ignored.
func (g *Git) PendingChanges(ctx context.Context, paths []string) ([]string, error) {
	spec, err := pathspec(paths)
	if err != nil {
		return nil, err
	}
	out, err := g.run(ctx, append([]string{"diff", "--cached", "--name-only", "--"}, spec...)...)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

// Commit implements interfaces.VersionControl. The commit holds paths only;
// anything else in the index stays staged.
func (g *Git) Commit(ctx context.Context, message string, paths []string) error {
	spec, err := pathspec(paths)
	if err != nil {
		return err
	}
	_, err = g.run(ctx, append([]string{"commit", "-m", message, "--"}, spec...)...)
	return err
}

func pathspec(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	spec := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("vcs: resolve %s: %w", p, err)
		}
		spec = append(spec, abs)
	}
	return spec, nil
}

// Push implements interfaces.VersionControl. An empty branch pushes HEAD.
func (g *Git) Push(ctx context.Context, branch string) error {
	ref := strings.TrimSpace(branch)
	if ref == "" {
		ref = "HEAD"
	}
	_, err := g.run(ctx, "push", g.remote, ref)
	return err
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	argv := append([]string{"-C", g.dir}, args...)
	cmd := exec.CommandContext(ctx, g.binary, argv...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.WaitDelay = waitDelay

	started := time.Now()
	stdout, stderr, err := g.executor.Run(cmd)
	g.logger.Trace("vcs.git.exec", "args", args, "duration", time.Since(started), "error", err)
	if err == nil {
		return stdout, nil
	}

	cause := err
	if ctxErr := ctx.Err(); ctxErr != nil {
		cause = ctxErr
	}
	exitCode := -1
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		exitCode = coded.ExitCode()
	}
	operation := ""
	if len(args) > 0 {
		operation = args[0]
	}
	return "", &GitError{
		Operation: operation,
		Args:      args,
		Output:    stderr,
		ExitCode:  exitCode,
		Err:       fmt.Errorf("%w: %w", ErrGitOperationFailed, cause),
	}
}
