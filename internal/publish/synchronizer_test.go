package publish

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-portfolio/internal/vcs/vcstest"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

var files = []string{"public/images/proyectos/casa/imagen-1.jpg", "content/proyectos/casa.md"}

func TestSyncHappyPath(t *testing.T) {
	fake := vcstest.New()
	s := NewSynchronizer(fake, DefaultConfig())

	res := s.Sync(context.Background(), files, "Add new project: Casa")

	if res.State != StateDone || res.Kind != KindNone {
		t.Fatalf("expected done, got %s/%s (%s)", res.State, res.Kind, res.ErrorDetail)
	}
	if !res.Committed || !res.Pushed || res.ErrorDetail != "" {
		t.Fatalf("unexpected result %#v", res)
	}
	if !reflect.DeepEqual(res.FilesWritten, files) {
		t.Fatalf("unexpected files %v", res.FilesWritten)
	}
	want := []string{"is_repository", "identity", "stage", "stage", "pending_changes", "commit", "push"}
	if !reflect.DeepEqual(fake.CallLog(), want) {
		t.Fatalf("unexpected call order %v", fake.CallLog())
	}
	if fake.Commits[0] != "Add new project: Casa" || fake.Pushes[0] != "main" {
		t.Fatalf("unexpected commit/push %v %v", fake.Commits, fake.Pushes)
	}
}

func TestSyncLeavesUnrelatedStagedChangesAlone(t *testing.T) {
	fake := vcstest.New()
	fake.StageExternal("notas-internas.txt")
	s := NewSynchronizer(fake, DefaultConfig())

	res := s.Sync(context.Background(), files, "Add new project: Casa")
	if !res.Committed || !res.Pushed {
		t.Fatalf("unexpected result %#v", res)
	}
	want := []string{"imagen-1.jpg", "casa.md"}
	if len(fake.CommittedPaths) != 1 || !reflect.DeepEqual(fake.CommittedPaths[0], want) {
		t.Fatalf("expected commit of %v, got %v", want, fake.CommittedPaths)
	}
	if staged := fake.Staged(); !reflect.DeepEqual(staged, []string{"notas-internas.txt"}) {
		t.Fatalf("expected unrelated entry to stay staged, got %v", staged)
	}
}

func TestSyncIgnoresUnrelatedStagedChangesWhenClean(t *testing.T) {
	fake := vcstest.New()
	fake.StageExternal("notas-internas.txt")
	s := NewSynchronizer(fake, DefaultConfig())

	res := s.Sync(context.Background(), []string{}, "Add new project: Casa")
	if res.Committed || res.State != StateDone {
		t.Fatalf("expected nothing to commit, got %#v", res)
	}
	if len(fake.Commits) != 0 {
		t.Fatalf("expected no commit, got %v", fake.Commits)
	}
	want := []string{"is_repository", "identity"}
	if !reflect.DeepEqual(fake.CallLog(), want) {
		t.Fatalf("unexpected call order %v", fake.CallLog())
	}
}

func TestSyncAborts(t *testing.T) {
	cases := []struct {
		name      string
		configure func(*vcstest.Fake)
		kind      Kind
		failedAt  State
		detail    string
		committed bool
		lastCall  string
	}{
		{
			name:      "not a repository",
			configure: func(f *vcstest.Fake) { f.Repository = false },
			kind:      KindNotRepository,
			failedAt:  StateCheckRepo,
			detail:    "not a repository",
			lastCall:  "is_repository",
		},
		{
			name:      "missing identity",
			configure: func(f *vcstest.Fake) { f.Ident = interfaces.Identity{Name: "only name"} },
			kind:      KindUnconfigured,
			failedAt:  StateCheckRepo,
			detail:    "identity not configured",
			lastCall:  "identity",
		},
		{
			name:      "stage failure",
			configure: func(f *vcstest.Fake) { f.StageErr[files[1]] = errors.New("boom") },
			kind:      KindStageFailed,
			failedAt:  StateStage,
			detail:    "stage failed: " + files[1],
			lastCall:  "stage",
		},
		{
			name:      "status failure",
			configure: func(f *vcstest.Fake) { f.StatusErr = errors.New("boom") },
			kind:      KindStatusFailed,
			failedAt:  StateCheckDirty,
			detail:    "status failed",
			lastCall:  "pending_changes",
		},
		{
			name:      "commit failure",
			configure: func(f *vcstest.Fake) { f.CommitErr = errors.New("hook rejected") },
			kind:      KindCommitFailed,
			failedAt:  StateCommit,
			detail:    "commit failed",
			lastCall:  "commit",
		},
		{
			name:      "push failure keeps commit",
			configure: func(f *vcstest.Fake) { f.PushErr = errors.New("remote unreachable") },
			kind:      KindPushFailed,
			failedAt:  StatePush,
			detail:    "push failed",
			committed: true,
			lastCall:  "push",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := vcstest.New()
			tc.configure(fake)

			res := NewSynchronizer(fake, DefaultConfig()).Sync(context.Background(), files, "msg")

			if res.State != StateAborted || res.Kind != tc.kind || res.FailedAt != tc.failedAt {
				t.Fatalf("expected aborted/%s at %s, got %s/%s at %s", tc.kind, tc.failedAt, res.State, res.Kind, res.FailedAt)
			}
			if res.ErrorDetail != tc.detail {
				t.Fatalf("expected detail %q, got %q", tc.detail, res.ErrorDetail)
			}
			if res.Committed != tc.committed || res.Pushed {
				t.Fatalf("unexpected flags committed=%v pushed=%v", res.Committed, res.Pushed)
			}
			if !res.Partial() {
				t.Fatalf("expected partial failure")
			}
			calls := fake.CallLog()
			if calls[len(calls)-1] != tc.lastCall {
				t.Fatalf("expected run to stop after %s, calls %v", tc.lastCall, calls)
			}
			if tc.committed && len(fake.Commits) != 1 {
				t.Fatalf("expected local commit to remain, got %v", fake.Commits)
			}
		})
	}
}

func TestSyncNothingToCommitIsSuccess(t *testing.T) {
	fake := vcstest.New()
	fake.Clean = true

	res := NewSynchronizer(fake, DefaultConfig()).Sync(context.Background(), files, "msg")

	if res.State != StateDone || res.Kind != KindNone || res.ErrorDetail != "" {
		t.Fatalf("expected clean done, got %#v", res)
	}
	if res.Committed || res.Pushed || !res.NothingToCommit() {
		t.Fatalf("expected nothing committed, got %#v", res)
	}
}

func TestSyncDisabledDoesNotTouchRepository(t *testing.T) {
	fake := vcstest.New()
	cfg := DefaultConfig()
	cfg.Enabled = false

	res := NewSynchronizer(fake, cfg).Sync(context.Background(), files, "msg")

	if res.Kind != KindDisabled || res.ErrorDetail != "sync disabled" {
		t.Fatalf("unexpected result %#v", res)
	}
	if len(fake.CallLog()) != 0 {
		t.Fatalf("expected no git calls, got %v", fake.CallLog())
	}
}

func TestSyncPushTimeout(t *testing.T) {
	fake := vcstest.New()
	fake.PushDelay = time.Second
	cfg := DefaultConfig()
	cfg.PushTimeout = 20 * time.Millisecond

	res := NewSynchronizer(fake, cfg).Sync(context.Background(), files, "msg")

	if res.Kind != KindTimeout || res.ErrorDetail != "push timed out" {
		t.Fatalf("expected push timeout, got %s %q", res.Kind, res.ErrorDetail)
	}
	if !res.Committed || res.Pushed {
		t.Fatalf("expected committed without push, got %#v", res)
	}
	if !errors.Is(res.Cause, context.DeadlineExceeded) {
		t.Fatalf("expected deadline cause, got %v", res.Cause)
	}
}

func TestSyncSerializesConcurrentRuns(t *testing.T) {
	fake := vcstest.New()
	fake.PushDelay = 30 * time.Millisecond
	s := NewSynchronizer(fake, DefaultConfig())

	var wg sync.WaitGroup
	results := make([]*SyncResult, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Sync(context.Background(), files, "msg")
		}(i)
	}
	wg.Wait()

	if got := fake.MaxConcurrent(); got != 1 {
		t.Fatalf("expected git calls to never overlap, saw %d concurrent", got)
	}
	for i, res := range results {
		if res.State != StateDone {
			t.Fatalf("run %d: expected done, got %s (%s)", i, res.State, res.ErrorDetail)
		}
	}
}

func TestSyncBusyWhenLockWaitElapses(t *testing.T) {
	fake := vcstest.New()
	fake.PushDelay = 200 * time.Millisecond
	cfg := DefaultConfig()
	cfg.LockWait = 10 * time.Millisecond
	s := NewSynchronizer(fake, cfg)

	started := make(chan struct{})
	done := make(chan *SyncResult)
	go func() {
		close(started)
		done <- s.Sync(context.Background(), files, "first")
	}()
	<-started
	time.Sleep(50 * time.Millisecond)

	res := s.Sync(context.Background(), files, "second")
	if res.Kind != KindTimeout || res.ErrorDetail != "sync busy" {
		t.Fatalf("expected sync busy, got %s %q", res.Kind, res.ErrorDetail)
	}
	if first := <-done; first.State != StateDone {
		t.Fatalf("expected first run to finish, got %#v", first)
	}
}

func TestSyncRecordsDuration(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(3 * time.Second)}
	i := 0
	clock := func() time.Time {
		now := ticks[min(i, len(ticks)-1)]
		i++
		return now
	}

	res := NewSynchronizer(vcstest.New(), DefaultConfig(), WithClock(clock)).Sync(context.Background(), files, "msg")
	if !res.StartedAt.Equal(base) || res.Duration != 3*time.Second {
		t.Fatalf("unexpected timing %v %v", res.StartedAt, res.Duration)
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		res  *SyncResult
		want string
	}{
		{&SyncResult{FilesWritten: []string{"a"}, Committed: true, Pushed: true, State: StateDone}, "committed and pushed 1 file(s)"},
		{&SyncResult{State: StateDone}, "nothing to commit"},
		{&SyncResult{Committed: true, State: StateAborted, ErrorDetail: "push failed"}, "committed locally, not pushed: push failed"},
		{&SyncResult{State: StateAborted, ErrorDetail: "sync disabled"}, "not committed: sync disabled"},
		{nil, "sync not attempted"},
	}
	for _, tc := range cases {
		if got := Describe(tc.res); got != tc.want {
			t.Fatalf("Describe = %q, want %q", got, tc.want)
		}
	}
}
