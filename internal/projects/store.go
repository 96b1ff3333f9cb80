package projects

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// Store reads and writes project records in a single flat directory. It
// holds no cache: every call goes to disk.
type Store struct {
	dir    string
	logger interfaces.Logger
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for skipped files and writes.
func WithLogger(logger interfaces.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore returns a store rooted at dir. The directory is not required to
// exist until the first write.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		dir:    filepath.Clean(dir),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the content directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for slug inside the content directory.
func (s *Store) Path(slug string) string {
	return filepath.Join(s.dir, FileName(slug))
}

// ListAll returns every well-formed record sorted by date, newest first.
// Records sharing a date keep file name order. A missing directory yields an
// empty list; unreadable or malformed files are logged and skipped.
func (s *Store) ListAll(ctx context.Context) ([]*Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("projects.list.missing_dir", "dir", s.dir)
			return []*Record{}, nil
		}
		return nil, fmt.Errorf("projects: read dir %s: %w", s.dir, err)
	}

	records := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") {
			continue
		}
		slug := strings.TrimSuffix(name, fileExt)
		record, err := s.read(slug)
		if err != nil {
			s.logger.Warn("projects.list.skipped", "slug", slug, "error", err)
			continue
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
	return records, nil
}

// GetBySlug loads one record. A trailing ".md" on slug is ignored. Slugs that
// would escape the content directory resolve to ErrNotFound.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slug = strings.TrimSuffix(strings.TrimSpace(slug), fileExt)
	if !safeSlug(slug) {
		return nil, &NotFoundError{Slug: slug}
	}
	return s.read(slug)
}

func (s *Store) read(slug string) (*Record, error) {
	data, err := os.ReadFile(s.Path(slug))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Slug: slug}
		}
		return nil, fmt.Errorf("projects: read %s: %w", slug, err)
	}
	return Decode(slug, data)
}

// safeSlug rejects anything that is not a single plain path element.
func safeSlug(slug string) bool {
	if slug == "" || strings.HasPrefix(slug, ".") {
		return false
	}
	if strings.ContainsAny(slug, `/\`) || strings.ContainsRune(slug, 0) {
		return false
	}
	return filepath.Base(slug) == slug
}
