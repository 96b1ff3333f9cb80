package publish

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/internal/metrics"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

const (
	DefaultCommandTimeout = 10 * time.Second
	DefaultPushTimeout    = 60 * time.Second
	DefaultLockWait       = 30 * time.Second
)

// Config controls a Synchronizer.
type Config struct {
	Enabled bool
	// Branch is pushed to the backend's remote. Empty pushes HEAD.
	Branch         string
	CommandTimeout time.Duration
	PushTimeout    time.Duration
	// LockWait bounds how long a run waits for a concurrent one to finish.
	// Zero waits for as long as ctx allows.
	LockWait time.Duration
}

// DefaultConfig enables syncing with the default timeouts.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Branch:         "main",
		CommandTimeout: DefaultCommandTimeout,
		PushTimeout:    DefaultPushTimeout,
		LockWait:       DefaultLockWait,
	}
}

// Synchronizer stages, commits and pushes written files. Only one run
// touches the repository at a time.
type Synchronizer struct {
	vcs    interfaces.VersionControl
	cfg    Config
	lock   *semaphore.Weighted
	logger interfaces.Logger
	now    func() time.Time
}

// Option customises a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSynchronizer returns a synchronizer over vcs. Zero timeouts fall back
// to the defaults.
func NewSynchronizer(vcs interfaces.VersionControl, cfg Config, opts ...Option) *Synchronizer {
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = DefaultPushTimeout
	}
	s := &Synchronizer{
		vcs:    vcs,
		cfg:    cfg,
		lock:   semaphore.NewWeighted(1),
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether runs will touch the repository.
func (s *Synchronizer) Enabled() bool {
	return s.cfg.Enabled && s.vcs != nil
}

// Sync runs CheckRepo, Stage, CheckDirty, Commit and Push for files. It
// never returns an error: every failure is described by the result, which
// always has State set to StateDone or StateAborted.
func (s *Synchronizer) Sync(ctx context.Context, files []string, message string) *SyncResult {
	res := &SyncResult{
		FilesWritten: slices.Clone(files),
		State:        StateIdle,
		StartedAt:    s.now(),
	}
	if res.FilesWritten == nil {
		res.FilesWritten = []string{}
	}

	if !s.Enabled() {
		s.abort(res, KindDisabled, "sync disabled", nil)
		return s.finish(res)
	}

	lockCtx := ctx
	if s.cfg.LockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.cfg.LockWait)
		defer cancel()
	}
	if err := s.lock.Acquire(lockCtx, 1); err != nil {
		s.abort(res, KindTimeout, "sync busy", err)
		return s.finish(res)
	}
	defer s.lock.Release(1)

	s.run(ctx, res, message)
	return s.finish(res)
}

func (s *Synchronizer) run(ctx context.Context, res *SyncResult, message string) {
	res.State = StateCheckRepo
	if ok, err := s.checkRepository(ctx); !ok {
		s.fail(res, err, KindNotRepository, "not a repository", "repository check")
		return
	}

	identity, err := s.identity(ctx)
	if err != nil {
		s.fail(res, err, KindUnconfigured, "identity not configured", "identity check")
		return
	}
	if !identity.Complete() {
		s.logger.Warn("publish.sync.identity_missing", "name_set", identity.Name != "", "email_set", identity.Email != "")
		s.abort(res, KindUnconfigured, "identity not configured", nil)
		return
	}

	res.State = StateStage
	for _, path := range res.FilesWritten {
		if err := s.step(ctx, s.cfg.CommandTimeout, func(c context.Context) error {
			return s.vcs.Stage(c, path)
		}); err != nil {
			s.fail(res, err, KindStageFailed, "stage failed: "+path, "stage")
			return
		}
	}

	res.State = StateCheckDirty
	if len(res.FilesWritten) == 0 {
		s.logger.Info("publish.sync.nothing_to_commit", "files", res.FilesWritten)
		res.State = StateDone
		return
	}
	var pending []string
	if err := s.step(ctx, s.cfg.CommandTimeout, func(c context.Context) error {
		var err error
		pending, err = s.vcs.PendingChanges(c, res.FilesWritten)
		return err
	}); err != nil {
		s.fail(res, err, KindStatusFailed, "status failed", "status")
		return
	}
	if len(pending) == 0 {
		s.logger.Info("publish.sync.nothing_to_commit", "files", res.FilesWritten)
		res.State = StateDone
		return
	}

	res.State = StateCommit
	if err := s.step(ctx, s.cfg.CommandTimeout, func(c context.Context) error {
		return s.vcs.Commit(c, message, res.FilesWritten)
	}); err != nil {
		s.fail(res, err, KindCommitFailed, "commit failed", "commit")
		return
	}
	res.Committed = true

	res.State = StatePush
	if err := s.step(ctx, s.cfg.PushTimeout, func(c context.Context) error {
		return s.vcs.Push(c, s.cfg.Branch)
	}); err != nil {
		s.fail(res, err, KindPushFailed, "push failed", "push")
		return
	}
	res.Pushed = true
	res.State = StateDone
}

// checkRepository returns the step context error when the check was cut
// short, so a slow git is reported as a timeout instead of a missing repo.
func (s *Synchronizer) checkRepository(ctx context.Context) (bool, error) {
	stepCtx, cancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	defer cancel()
	if s.vcs.IsRepository(stepCtx) {
		return true, nil
	}
	return false, stepCtx.Err()
}

func (s *Synchronizer) identity(ctx context.Context) (interfaces.Identity, error) {
	stepCtx, cancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	defer cancel()
	return s.vcs.Identity(stepCtx)
}

func (s *Synchronizer) step(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(stepCtx)
}

// fail aborts with kind, unless err is a deadline, which becomes a timeout
// named after the step.
func (s *Synchronizer) fail(res *SyncResult, err error, kind Kind, reason, step string) {
	if errors.Is(err, context.DeadlineExceeded) {
		s.abort(res, KindTimeout, step+" timed out", err)
		return
	}
	s.abort(res, kind, reason, err)
}

func (s *Synchronizer) abort(res *SyncResult, kind Kind, reason string, cause error) {
	res.FailedAt = res.State
	res.State = StateAborted
	res.Kind = kind
	res.ErrorDetail = reason
	res.Cause = cause
}

func (s *Synchronizer) finish(res *SyncResult) *SyncResult {
	res.Duration = s.now().Sub(res.StartedAt)
	metrics.RecordSync(string(res.Kind))

	fields := []any{
		"state", res.State,
		"committed", res.Committed,
		"pushed", res.Pushed,
		"files", len(res.FilesWritten),
		"duration", res.Duration,
	}
	switch res.Kind {
	case KindNone:
		s.logger.Info("publish.sync.completed", fields...)
	case KindDisabled:
		s.logger.Debug("publish.sync.disabled", fields...)
	case KindPushFailed, KindTimeout:
		s.logger.Error("publish.sync.aborted", append(fields, "kind", res.Kind, "reason", res.ErrorDetail, "failed_at", res.FailedAt, "error", res.Cause)...)
	default:
		s.logger.Warn("publish.sync.aborted", append(fields, "kind", res.Kind, "reason", res.ErrorDetail, "failed_at", res.FailedAt, "error", res.Cause)...)
	}
	return res
}

// Describe renders a one-line summary of res for CLI output.
func Describe(res *SyncResult) string {
	switch {
	case res == nil:
		return "sync not attempted"
	case res.Pushed:
		return fmt.Sprintf("committed and pushed %d file(s)", len(res.FilesWritten))
	case res.NothingToCommit():
		return "nothing to commit"
	case res.Committed:
		return "committed locally, not pushed: " + res.ErrorDetail
	default:
		return "not committed: " + res.ErrorDetail
	}
}
