package submissions

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-portfolio/internal/journal"
	"github.com/goliatone/go-portfolio/internal/markdown"
	"github.com/goliatone/go-portfolio/internal/projects"
	"github.com/goliatone/go-portfolio/internal/publish"
	"github.com/goliatone/go-portfolio/internal/uploads"
	"github.com/goliatone/go-portfolio/internal/validation"
	"github.com/goliatone/go-portfolio/internal/vcs"
	"github.com/goliatone/go-portfolio/internal/vcs/vcstest"
)

type recordingJournal struct {
	journal.Noop
	entries []*journal.Entry
}

func (r *recordingJournal) Append(_ context.Context, e *journal.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

type fixture struct {
	root    string
	store   *projects.Store
	fake    *vcstest.Fake
	journal *recordingJournal
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	store := projects.NewStore(filepath.Join(root, "content", "proyectos"))
	fake := vcstest.New()
	rec := &recordingJournal{}
	renderer, err := markdown.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	images := uploads.NewStore(filepath.Join(root, "public", "images", "proyectos"), "/images/proyectos", 0)

	service := NewService(
		validation.NewValidator(),
		store,
		publish.NewSynchronizer(fake, publish.DefaultConfig()),
		WithImages(images),
		WithJournal(rec),
		WithRenderer(renderer),
	)
	return &fixture{root: root, store: store, fake: fake, journal: rec, service: service}
}

func scenarioInput() validation.Input {
	return validation.Input{
		Title:    "Casa Moderna 2024",
		Summary:  "x",
		Category: "Construcción",
		Date:     "2024-05-01",
		Body:     "## Hi",
		Images:   []string{},
	}
}

func TestSubmitPublishes(t *testing.T) {
	f := newFixture(t)

	out, err := f.service.Submit(context.Background(), Submission{Input: scenarioInput()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Slug != "casa-moderna-2024" {
		t.Fatalf("unexpected slug %q", out.Slug)
	}
	if !out.Sync.Committed || !out.Sync.Pushed || out.Sync.ErrorDetail != "" {
		t.Fatalf("expected committed and pushed, got %#v", out.Sync)
	}
	data, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if filepath.Base(out.Path) != "casa-moderna-2024.md" || !strings.Contains(string(data), `title: "Casa Moderna 2024"`) {
		t.Fatalf("unexpected record file %s:\n%s", out.Path, data)
	}
	if f.fake.Commits[0] != "Add new project: Casa Moderna 2024" {
		t.Fatalf("unexpected commit message %q", f.fake.Commits[0])
	}
	if len(f.journal.entries) != 1 || f.journal.entries[0].Slug != out.Slug || !f.journal.entries[0].Pushed {
		t.Fatalf("expected one journal entry, got %#v", f.journal.entries)
	}
	if !strings.Contains(out.Note(), "published") {
		t.Fatalf("unexpected note %q", out.Note())
	}
}

func TestSubmitOutsideRepositoryStillSaves(t *testing.T) {
	f := newFixture(t)
	f.fake.Repository = false

	out, err := f.service.Submit(context.Background(), Submission{Input: scenarioInput()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Sync.Committed || out.Sync.Pushed || out.Sync.Kind != publish.KindNotRepository {
		t.Fatalf("unexpected sync result %#v", out.Sync)
	}
	if _, err := os.Stat(out.Path); err != nil {
		t.Fatalf("expected record file to exist: %v", err)
	}
	if !strings.Contains(out.Note(), "not a repository") {
		t.Fatalf("expected informational note, got %q", out.Note())
	}
}

func TestSubmitPushFailureKeepsCommit(t *testing.T) {
	f := newFixture(t)
	f.fake.PushErr = errors.New("could not resolve host")

	out, err := f.service.Submit(context.Background(), Submission{Input: scenarioInput()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !out.Sync.Committed || out.Sync.Pushed || out.Sync.ErrorDetail == "" {
		t.Fatalf("expected partial failure, got %#v", out.Sync)
	}
	if len(f.fake.Commits) != 1 {
		t.Fatalf("expected local commit to remain, got %v", f.fake.Commits)
	}
}

func TestSubmitCapsImages(t *testing.T) {
	f := newFixture(t)
	in := scenarioInput()
	in.Images = []string{"1", "2", "3", "4", "5", "6", "7", "8"}

	out, err := f.service.Submit(context.Background(), Submission{Input: in})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := []string{"1", "2", "3", "4", "5"}
	if strings.Join(out.Record.Images, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, out.Record.Images)
	}
	stored, err := f.store.GetBySlug(context.Background(), out.Slug)
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if len(stored.Images) != 5 {
		t.Fatalf("expected 5 stored images, got %v", stored.Images)
	}
}

func TestSubmitInvalidTitleWritesNothing(t *testing.T) {
	f := newFixture(t)
	in := scenarioInput()
	in.Title = "###"

	_, err := f.service.Submit(context.Background(), Submission{Input: in})
	if !errors.Is(err, validation.ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := os.Stat(f.store.Dir()); !os.IsNotExist(err) {
		t.Fatalf("expected no content directory, got %v", err)
	}
	if len(f.fake.CallLog()) != 0 {
		t.Fatalf("expected no git calls, got %v", f.fake.CallLog())
	}
}

func TestSubmitRejectsDuplicateSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.Submit(ctx, Submission{Input: scenarioInput()}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	in := scenarioInput()
	in.Title = "casa moderna: 2024!"
	in.Summary = "other"
	_, err := f.service.Submit(ctx, Submission{Input: in})
	if !errors.Is(err, projects.ErrSlugConflict) {
		t.Fatalf("expected ErrSlugConflict, got %v", err)
	}
	stored, _ := f.store.GetBySlug(ctx, "casa-moderna-2024")
	if stored.Summary != "x" {
		t.Fatalf("original record was overwritten: %#v", stored)
	}
}

func TestSubmitStoresUploadsAndStagesThem(t *testing.T) {
	f := newFixture(t)
	in := scenarioInput()
	in.Images = []string{"/images/external.jpg"}
	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 64)...)

	out, err := f.service.Submit(context.Background(), Submission{
		Input: in,
		Uploads: []uploads.File{
			{Name: "a.jpg", Reader: bytes.NewReader(jpeg)},
			{Name: "b.jpg", Reader: bytes.NewReader(jpeg)},
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := []string{
		"/images/external.jpg",
		"/images/proyectos/casa-moderna-2024/imagen-1.jpg",
		"/images/proyectos/casa-moderna-2024/imagen-2.jpg",
	}
	if strings.Join(out.Record.Images, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected images %v", out.Record.Images)
	}
	if len(out.Sync.FilesWritten) != 3 || out.Sync.FilesWritten[2] != out.Path {
		t.Fatalf("expected images then record to be staged, got %v", out.Sync.FilesWritten)
	}
}

func TestSubmitWriteFailureRemovesUploads(t *testing.T) {
	f := newFixture(t)
	// A file where the content directory should be makes the record write fail.
	if err := os.WriteFile(filepath.Join(f.root, "content"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 64)...)

	_, err := f.service.Submit(context.Background(), Submission{
		Input:   scenarioInput(),
		Uploads: []uploads.File{{Name: "a.jpg", Reader: bytes.NewReader(jpeg)}},
	})
	if err == nil {
		t.Fatal("expected write failure")
	}
	slugDir := filepath.Join(f.root, "public", "images", "proyectos", "casa-moderna-2024")
	if _, err := os.Stat(slugDir); !os.IsNotExist(err) {
		entries, _ := os.ReadDir(slugDir)
		t.Fatalf("expected no upload left behind, found %v (stat err %v)", entries, err)
	}
	if len(f.fake.CallLog()) != 0 {
		t.Fatalf("expected no git calls, got %v", f.fake.CallLog())
	}
}

func TestSubmitConflictKeepsExistingImages(t *testing.T) {
	f := newFixture(t)
	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 64)...)
	first, err := f.service.Submit(context.Background(), Submission{
		Input:   scenarioInput(),
		Uploads: []uploads.File{{Name: "a.jpg", Reader: bytes.NewReader(jpeg)}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	image := filepath.Join(f.root, "public", "images", "proyectos", first.Slug, "imagen-1.jpg")
	before, err := os.ReadFile(image)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}

	other := append([]byte{0xFF, 0xD8, 0xFF, 0xE1}, bytes.Repeat([]byte{7}, 128)...)
	_, err = f.service.Submit(context.Background(), Submission{
		Input:   scenarioInput(),
		Uploads: []uploads.File{{Name: "b.jpg", Reader: bytes.NewReader(other)}},
	})
	if !errors.Is(err, projects.ErrSlugConflict) {
		t.Fatalf("expected ErrSlugConflict, got %v", err)
	}
	after, err := os.ReadFile(image)
	if err != nil || !bytes.Equal(before, after) {
		t.Fatalf("expected first submission's image untouched, err %v", err)
	}
}

func TestSubmitKeepsLeadingBlankLinesInBody(t *testing.T) {
	f := newFixture(t)
	in := scenarioInput()
	in.Body = "\n\n## Hi"

	out, err := f.service.Submit(context.Background(), Submission{Input: in})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got, err := f.store.GetBySlug(context.Background(), out.Slug)
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if got.Body != in.Body {
		t.Fatalf("expected body %q to re-read unchanged, got %q", in.Body, got.Body)
	}
}

func TestGetRendersBody(t *testing.T) {
	f := newFixture(t)
	out, err := f.service.Submit(context.Background(), Submission{Input: scenarioInput()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got, err := f.service.Get(context.Background(), out.Slug)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.Contains(got.HTML, `<h2 id="hi">Hi</h2>`) {
		t.Fatalf("unexpected html %q", got.HTML)
	}

	if _, err := f.service.Get(context.Background(), "missing"); !errors.Is(err, projects.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := exec.Command("git", append([]string{"-C", dir}, args...)...).CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
	return string(out)
}

func TestSubmitEndToEndWithGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	root := t.TempDir()
	remote := filepath.Join(root, "remote.git")
	site := filepath.Join(root, "site")
	git(t, root, "init", "--bare", remote)
	git(t, root, "init", site)
	git(t, site, "config", "user.name", "Portfolio Test")
	git(t, site, "config", "user.email", "test@example.com")
	git(t, site, "checkout", "-b", "main")
	git(t, site, "remote", "add", "origin", remote)

	store := projects.NewStore(filepath.Join(site, "content", "proyectos"))
	service := NewService(
		validation.NewValidator(),
		store,
		publish.NewSynchronizer(vcs.NewGit(site), publish.DefaultConfig()),
	)

	out, err := service.Submit(context.Background(), Submission{Input: scenarioInput()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !out.Sync.Committed || !out.Sync.Pushed {
		t.Fatalf("expected commit and push, got %#v (cause %v)", out.Sync, out.Sync.Cause)
	}
	files := git(t, remote, "show", "--name-only", "--format=%s", "main")
	if !strings.Contains(files, "Add new project: Casa Moderna 2024") || !strings.Contains(files, "content/proyectos/casa-moderna-2024.md") {
		t.Fatalf("unexpected remote head:\n%s", files)
	}

	// Scenario 3 against a real remote that has gone away.
	if err := os.RemoveAll(remote); err != nil {
		t.Fatal(err)
	}
	in := scenarioInput()
	in.Title = "Torre Norte"
	out, err = service.Submit(context.Background(), Submission{Input: in})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !out.Sync.Committed || out.Sync.Pushed || out.Sync.Kind != publish.KindPushFailed {
		t.Fatalf("expected push failure after commit, got %#v", out.Sync)
	}
	head := git(t, site, "log", "-1", "--format=%s")
	if strings.TrimSpace(head) != "Add new project: Torre Norte" {
		t.Fatalf("expected local commit to remain, got %q", head)
	}
}
