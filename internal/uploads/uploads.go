// Package uploads stores submitted project images next to the site's
// public assets.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedImage rejects files whose extension or content is not an
	// accepted image type.
	ErrUnsupportedImage = errors.New("uploads: unsupported image type")
	// ErrImageTooLarge rejects files above the configured size cap.
	ErrImageTooLarge = errors.New("uploads: image too large")
)

// DefaultMaxBytes caps a single image.
const DefaultMaxBytes int64 = 10 << 20

var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// File is one uploaded image.
type File struct {
	Name   string
	Reader io.Reader
}

// Saved describes a stored image.
type Saved struct {
	// Path is the location on disk, used for staging.
	Path string
	// PublicPath is the URL path written into the record.
	PublicPath string
}

// Store writes images to <dir>/<slug>/imagen-N.<ext>.
type Store struct {
	dir          string
	publicPrefix string
	maxBytes     int64
}

// NewStore returns a store rooted at dir whose files are served under
// publicPrefix. A non-positive maxBytes selects DefaultMaxBytes.
func NewStore(dir, publicPrefix string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{
		dir:          filepath.Clean(dir),
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
		maxBytes:     maxBytes,
	}
}

// Pending is an image written under a temporary name. Commit moves it to
// Path; Discard removes it.
type Pending struct {
	Saved
	tmp string
}

// Save stores files in order, numbering them from 1. It is Prepare followed
// by Commit.
func (s *Store) Save(ctx context.Context, slug string, files []File) ([]Saved, error) {
	pending, err := s.Prepare(ctx, slug, files)
	if err != nil {
		return nil, err
	}
	return s.Commit(pending)
}

// Prepare writes files under temporary names in the slug directory without
// touching any existing imagen-N file. Extensions are checked for every file
// before anything is written; if a later write fails the temporary files
// already written by this call are removed.
func (s *Store) Prepare(ctx context.Context, slug string, files []File) ([]Pending, error) {
	if len(files) == 0 {
		return nil, nil
	}
	exts := make([]string, len(files))
	for i, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if _, ok := allowedTypes[ext]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedImage, f.Name)
		}
		exts[i] = ext
	}

	target := filepath.Join(s.dir, slug)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create dir %s: %w", target, err)
	}

	pending := make([]Pending, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			s.Discard(pending)
			return nil, err
		}
		tmp, err := s.writeTemp(target, exts[i], f.Reader)
		if err != nil {
			s.Discard(pending)
			return nil, fmt.Errorf("uploads: %s: %w", f.Name, err)
		}
		name := fmt.Sprintf("imagen-%d%s", i+1, exts[i])
		pending = append(pending, Pending{
			Saved: Saved{
				Path:       filepath.Join(target, name),
				PublicPath: path.Join(s.publicPrefix, slug, name),
			},
			tmp: tmp,
		})
	}
	return pending, nil
}

// Commit renames every pending file into place. On failure the files moved
// so far and the remaining temporary files are removed.
func (s *Store) Commit(pending []Pending) ([]Saved, error) {
	saved := make([]Saved, 0, len(pending))
	for i, p := range pending {
		if err := os.Rename(p.tmp, p.Path); err != nil {
			s.Remove(saved)
			s.Discard(pending[i:])
			return nil, fmt.Errorf("uploads: move %s: %w", p.Path, err)
		}
		saved = append(saved, p.Saved)
	}
	return saved, nil
}

// Discard removes the temporary files of pending and the slug directory when
// it is left empty.
func (s *Store) Discard(pending []Pending) {
	paths := make([]string, 0, len(pending))
	for _, p := range pending {
		os.Remove(p.tmp)
		paths = append(paths, p.tmp)
	}
	removeEmptyParents(paths)
}

// Remove deletes stored images and the slug directory when it is left empty.
func (s *Store) Remove(saved []Saved) {
	paths := make([]string, 0, len(saved))
	for _, f := range saved {
		os.Remove(f.Path)
		paths = append(paths, f.Path)
	}
	removeEmptyParents(paths)
}

// removeEmptyParents removes the directories holding paths. os.Remove keeps
// a directory that still has entries.
func removeEmptyParents(paths []string) {
	seen := map[string]struct{}{}
	for _, p := range paths {
		dir := filepath.Dir(p)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		os.Remove(dir)
	}
}

func (s *Store) writeTemp(dir, ext string, r io.Reader) (string, error) {
	tmp, err := os.CreateTemp(dir, ".upload-*.tmp")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	fail := func(err error) (string, error) {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fail(err)
	}
	head = head[:n]
	if !sniffMatches(ext, head) {
		return fail(ErrUnsupportedImage)
	}

	if _, err := tmp.Write(head); err != nil {
		return fail(err)
	}
	written, err := io.Copy(tmp, io.LimitReader(r, s.maxBytes-int64(n)+1))
	if err != nil {
		return fail(err)
	}
	if int64(n)+written > s.maxBytes {
		return fail(ErrImageTooLarge)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return tmpName, nil
}

// sniffMatches checks the leading bytes against the type implied by ext.
func sniffMatches(ext string, head []byte) bool {
	return http.DetectContentType(head) == allowedTypes[ext]
}

// Allowed reports whether name has an accepted image extension.
func Allowed(name string) bool {
	_, ok := allowedTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}
