package projects

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Create writes r as a new record and returns its path. The file appears
// complete or not at all, and an existing record with the same slug is never
// replaced: that case returns a *ConflictError.
func (s *Store) Create(ctx context.Context, r *Record) (string, error) {
	if r == nil || !safeSlug(r.Slug) {
		return "", fmt.Errorf("%w: unusable slug", ErrInvalidRecord)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := s.Path(r.Slug)
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return "", fmt.Errorf("projects: create dir %s: %w", s.dir, err)
	}

	tmp, err := s.writeTemp(r)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", &ConflictError{Slug: r.Slug, Path: target}
		}
		// Some filesystems refuse hard links; fall back to an exclusive create.
		if err := writeExclusive(target, Encode(r)); err != nil {
			if errors.Is(err, fs.ErrExist) {
				return "", &ConflictError{Slug: r.Slug, Path: target}
			}
			return "", fmt.Errorf("projects: write %s: %w", target, err)
		}
	}

	s.logger.Info("projects.record.created", "slug", r.Slug, "path", target)
	return target, nil
}

// Exists reports whether a record file is already present for slug.
func (s *Store) Exists(slug string) bool {
	slug = strings.TrimSuffix(slug, fileExt)
	if !safeSlug(slug) {
		return false
	}
	_, err := os.Stat(s.Path(slug))
	return err == nil
}

func (s *Store) writeTemp(r *Record) (string, error) {
	f, err := os.CreateTemp(s.dir, "."+r.Slug+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("projects: create temp file: %w", err)
	}
	name := f.Name()

	if _, err := f.Write(Encode(r)); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("projects: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("projects: fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("projects: close temp file: %w", err)
	}
	if err := os.Chmod(name, filePerm); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("projects: chmod temp file: %w", err)
	}
	return name, nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
