package submissions

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goliatone/go-portfolio/internal/journal"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/internal/metrics"
	"github.com/goliatone/go-portfolio/internal/projects"
	"github.com/goliatone/go-portfolio/internal/publish"
	"github.com/goliatone/go-portfolio/internal/uploads"
	"github.com/goliatone/go-portfolio/internal/validation"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// CommitMessagePrefix starts every commit created for a submission.
const CommitMessagePrefix = "Add new project: "

// Submission is a validated-on-entry request to add a project.
type Submission struct {
	Input   validation.Input
	Uploads []uploads.File
}

// Outcome is what a successful submission produced. Sync is never nil.
type Outcome struct {
	Slug   string              `json:"slug"`
	Record *projects.Record    `json:"record"`
	Path   string              `json:"path"`
	Sync   *publish.SyncResult `json:"sync"`
}

// Note is the user-facing summary of the outcome.
func (o *Outcome) Note() string {
	switch {
	case o == nil || o.Sync == nil:
		return "Project saved."
	case o.Sync.Pushed:
		return "Project published. The site will rebuild from the repository."
	case o.Sync.NothingToCommit():
		return "Project saved. The repository already had this content."
	case o.Sync.Kind == publish.KindDisabled:
		return "Project saved. Repository sync is turned off."
	case o.Sync.Committed:
		return "Project saved and committed locally but not published: " + o.Sync.ErrorDetail + "."
	default:
		return "Project saved but not published: " + o.Sync.ErrorDetail + "."
	}
}

// Synchronizer is the part of publish.Synchronizer the service needs.
type Synchronizer interface {
	Sync(ctx context.Context, files []string, message string) *publish.SyncResult
}

// Service runs the submission workflow: validate, store images, write the
// record, then synchronise. Only validation and the record write can fail
// the submission; sync problems are reported inside the Outcome.
type Service struct {
	validator *validation.Validator
	store     *projects.Store
	images    *uploads.Store
	sync      Synchronizer
	journal   journal.Journal
	renderer  interfaces.MarkdownRenderer
	logger    interfaces.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithImages enables image uploads.
func WithImages(images *uploads.Store) Option {
	return func(s *Service) { s.images = images }
}

// WithJournal records every sync attempt.
func WithJournal(j journal.Journal) Option {
	return func(s *Service) {
		if j != nil {
			s.journal = j
		}
	}
}

// WithRenderer enables HTML rendering for Get.
func WithRenderer(r interfaces.MarkdownRenderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the workflow.
func NewService(validator *validation.Validator, store *projects.Store, sync Synchronizer, opts ...Option) *Service {
	s := &Service{
		validator: validator,
		store:     store,
		sync:      sync,
		journal:   journal.Noop{},
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates sub, writes it and synchronises the written files.
// Returned errors are validation errors, projects.ErrSlugConflict,
// uploads errors, or a wrapped disk failure.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	record, err := s.validator.Validate(sub.Input)
	if err != nil {
		metrics.RecordSubmission("rejected")
		return nil, err
	}
	logger := logging.WithRecordContext(s.logger.WithContext(ctx), record.Slug, "", "submit")

	if s.store.Exists(record.Slug) {
		metrics.RecordSubmission("conflict")
		return nil, &projects.ConflictError{Slug: record.Slug, Path: s.store.Path(record.Slug)}
	}

	var pending []uploads.Pending
	if len(sub.Uploads) > 0 {
		if s.images == nil {
			metrics.RecordSubmission("rejected")
			return nil, fmt.Errorf("%w: uploads are not enabled", uploads.ErrUnsupportedImage)
		}
		room := s.validator.MaxImages() - len(record.Images)
		accepted := sub.Uploads[:min(max(room, 0), len(sub.Uploads))]
		if dropped := len(sub.Uploads) - len(accepted); dropped > 0 {
			logger.Info("submissions.uploads.truncated", "dropped", dropped)
		}
		var err error
		pending, err = s.images.Prepare(ctx, record.Slug, accepted)
		if err != nil {
			metrics.RecordSubmission("rejected")
			return nil, err
		}
		for _, img := range pending {
			record.Images = append(record.Images, img.PublicPath)
		}
	}

	path, err := s.store.Create(ctx, record)
	if err != nil {
		if len(pending) > 0 {
			s.images.Discard(pending)
		}
		if errors.Is(err, projects.ErrSlugConflict) {
			metrics.RecordSubmission("conflict")
		} else {
			metrics.RecordSubmission("failed")
		}
		logger.Error("submissions.record.write_failed", "error", err)
		return nil, err
	}

	files := make([]string, 0, len(pending)+1)
	if len(pending) > 0 {
		saved, err := s.images.Commit(pending)
		if err != nil {
			// The record would point at missing images.
			os.Remove(path)
			metrics.RecordSubmission("failed")
			logger.Error("submissions.uploads.commit_failed", "error", err)
			return nil, err
		}
		for _, img := range saved {
			files = append(files, img.Path)
		}
	}
	files = append(files, path)

	message := CommitMessagePrefix + record.Title
	result := s.sync.Sync(ctx, files, message)

	if err := s.journal.Append(ctx, journal.NewEntry(record.Slug, message, result)); err != nil {
		logger.Warn("submissions.journal.append_failed", "error", err)
	}

	if result.Pushed {
		metrics.RecordSubmission("published")
	} else {
		metrics.RecordSubmission("saved")
	}
	logger.Info("submissions.record.saved",
		"path", path,
		"committed", result.Committed,
		"pushed", result.Pushed,
		"sync_kind", result.Kind,
	)

	return &Outcome{Slug: record.Slug, Record: record, Path: path, Sync: result}, nil
}

// List returns every readable record, newest first.
func (s *Service) List(ctx context.Context) ([]*projects.Record, error) {
	return s.store.ListAll(ctx)
}

// Rendered is a record with its body converted to HTML.
type Rendered struct {
	*projects.Record
	HTML string `json:"html"`
}

// Get loads one record and renders its body when a renderer is set.
func (s *Service) Get(ctx context.Context, slug string) (*Rendered, error) {
	record, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	out := &Rendered{Record: record}
	if s.renderer != nil {
		html, err := s.renderer.Render(ctx, record.Body)
		if err != nil {
			return nil, fmt.Errorf("submissions: render %s: %w", record.Slug, err)
		}
		out.HTML = html
	}
	return out, nil
}
