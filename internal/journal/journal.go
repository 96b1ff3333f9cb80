package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// DefaultLimit caps Recent when callers pass a non-positive limit.
const DefaultLimit = 20

// MaxLimit caps Recent regardless of the requested limit.
const MaxLimit = 200

// ErrUnavailable is returned by a journal that has no backing store.
var ErrUnavailable = errors.New("journal: not configured")

// Journal stores the outcome of every synchronisation attempt.
type Journal interface {
	Append(ctx context.Context, entry *Entry) error
	Recent(ctx context.Context, limit int) ([]*Entry, error)
	BySlug(ctx context.Context, slug string, limit int) ([]*Entry, error)
}

// NewEntryRepository builds the go-repository-bun repository for entries.
func NewEntryRepository(db *bun.DB) repository.Repository[*Entry] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Entry]{
		NewRecord: func() *Entry { return &Entry{} },
		GetID: func(e *Entry) uuid.UUID {
			return e.ID
		},
		SetID: func(e *Entry, id uuid.UUID) {
			e.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(e *Entry) string {
			return e.Slug
		},
	})
}

// BunJournal persists entries through go-repository-bun.
type BunJournal struct {
	repo   repository.Repository[*Entry]
	logger interfaces.Logger
	now    func() time.Time
}

var _ Journal = (*BunJournal)(nil)

// NewBunJournal wraps db. Call Migrate before first use.
func NewBunJournal(db *bun.DB, logger interfaces.Logger) *BunJournal {
	return &BunJournal{
		repo:   NewEntryRepository(db),
		logger: logging.OrNoOp(logger),
		now:    time.Now,
	}
}

// Migrate creates the journal table and its index when missing.
func Migrate(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*Entry)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("journal: create table: %w", err)
	}
	if _, err := db.NewCreateIndex().
		Model((*Entry)(nil)).
		Index("sync_journal_slug_started_idx").
		Column("slug", "started_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("journal: create index: %w", err)
	}
	return nil
}

// Append stores entry, assigning an ID and timestamps when unset.
func (j *BunJournal) Append(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return nil
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := j.now().UTC()
	if entry.StartedAt.IsZero() {
		entry.StartedAt = now
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.Files == nil {
		entry.Files = []string{}
	}
	if _, err := j.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("journal: append %s: %w", entry.Slug, err)
	}
	j.logger.Debug("journal.entry.appended", "slug", entry.Slug, "state", entry.State, "kind", entry.Kind)
	return nil
}

// Recent returns the newest entries first.
func (j *BunJournal) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	records, _, err := j.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.started_at DESC")
		}),
		repository.SelectPaginate(clampLimit(limit), 0),
	)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	return records, nil
}

// BySlug returns the newest entries for one record.
func (j *BunJournal) BySlug(ctx context.Context, slug string, limit int) ([]*Entry, error) {
	records, _, err := j.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.slug = ?", slug).
				OrderExpr("?TableAlias.started_at DESC")
		}),
		repository.SelectPaginate(clampLimit(limit), 0),
	)
	if err != nil {
		return nil, fmt.Errorf("journal: by slug %s: %w", slug, err)
	}
	return records, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Noop discards entries. It backs deployments without a database.
type Noop struct{}

var _ Journal = Noop{}

func (Noop) Append(context.Context, *Entry) error { return nil }

func (Noop) Recent(context.Context, int) ([]*Entry, error) { return nil, ErrUnavailable }

func (Noop) BySlug(context.Context, string, int) ([]*Entry, error) { return nil, ErrUnavailable }
