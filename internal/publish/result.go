package publish

import "time"

// State is a step of the synchronisation state machine.
type State string

const (
	StateIdle       State = "idle"
	StateCheckRepo  State = "check_repo"
	StateStage      State = "stage"
	StateCheckDirty State = "check_dirty"
	StateCommit     State = "commit"
	StatePush       State = "push"
	StateDone       State = "done"
	StateAborted    State = "aborted"
)

// Kind classifies why a run stopped short. It is empty for runs that reach
// StateDone.
type Kind string

const (
	KindNone          Kind = ""
	KindDisabled      Kind = "disabled"
	KindNotRepository Kind = "not_repository"
	KindUnconfigured  Kind = "unconfigured"
	KindStageFailed   Kind = "stage_failed"
	KindStatusFailed  Kind = "status_failed"
	KindCommitFailed  Kind = "commit_failed"
	KindPushFailed    Kind = "push_failed"
	KindTimeout       Kind = "timeout"
)

// SyncResult reports how far a run got. Committed and Pushed are never
// rolled back: a push failure after a commit leaves Committed true.
type SyncResult struct {
	FilesWritten []string      `json:"filesWritten"`
	Committed    bool          `json:"committed"`
	Pushed       bool          `json:"pushed"`
	ErrorDetail  string        `json:"errorDetail,omitempty"`
	Cause        error         `json:"-"`
	Kind         Kind          `json:"kind,omitempty"`
	State        State         `json:"state"`
	FailedAt     State         `json:"failedAt,omitempty"`
	StartedAt    time.Time     `json:"startedAt"`
	Duration     time.Duration `json:"duration"`
}

// Aborted reports whether the run ended before StateDone.
func (r *SyncResult) Aborted() bool {
	return r != nil && r.State == StateAborted
}

// Partial reports the case where files were written locally but did not
// reach the remote.
func (r *SyncResult) Partial() bool {
	return r != nil && len(r.FilesWritten) > 0 && r.Aborted()
}

// NothingToCommit reports a clean run that found no staged changes.
func (r *SyncResult) NothingToCommit() bool {
	return r != nil && r.State == StateDone && !r.Committed
}
