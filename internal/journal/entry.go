package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-portfolio/internal/identity"
	"github.com/goliatone/go-portfolio/internal/publish"
)

// Entry is one synchronisation attempt as persisted in sync_journal.
type Entry struct {
	bun.BaseModel `bun:"table:sync_journal,alias:sj"`

	ID          uuid.UUID `bun:",pk,type:uuid" json:"id"`
	RecordID    uuid.UUID `bun:"record_id,notnull,type:uuid" json:"recordId"`
	Slug        string    `bun:"slug,notnull" json:"slug"`
	Message     string    `bun:"message" json:"message"`
	Files       []string  `bun:"files,type:jsonb" json:"files"`
	Committed   bool      `bun:"committed,notnull" json:"committed"`
	Pushed      bool      `bun:"pushed,notnull" json:"pushed"`
	Kind        string    `bun:"kind" json:"kind,omitempty"`
	State       string    `bun:"state,notnull" json:"state"`
	FailedAt    string    `bun:"failed_at" json:"failedAt,omitempty"`
	ErrorDetail string    `bun:"error_detail" json:"errorDetail,omitempty"`
	Cause       string    `bun:"cause" json:"cause,omitempty"`
	StartedAt   time.Time `bun:"started_at,notnull" json:"startedAt"`
	DurationMS  int64     `bun:"duration_ms,notnull,default:0" json:"durationMs"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
}

// NewEntry captures res for the record identified by slug.
func NewEntry(slug, message string, res *publish.SyncResult) *Entry {
	entry := &Entry{
		ID:       uuid.New(),
		RecordID: identity.ProjectUUID(slug),
		Slug:     slug,
		Message:  message,
		Files:    []string{},
	}
	if res == nil {
		return entry
	}
	entry.Files = append(entry.Files, res.FilesWritten...)
	entry.Committed = res.Committed
	entry.Pushed = res.Pushed
	entry.Kind = string(res.Kind)
	entry.State = string(res.State)
	entry.FailedAt = string(res.FailedAt)
	entry.ErrorDetail = res.ErrorDetail
	if res.Cause != nil {
		entry.Cause = res.Cause.Error()
	}
	entry.StartedAt = res.StartedAt.UTC()
	entry.DurationMS = res.Duration.Milliseconds()
	return entry
}
