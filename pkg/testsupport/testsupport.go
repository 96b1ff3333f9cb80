// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var dsnReplacer = strings.NewReplacer("/", "_", " ", "_", "#", "_")

// SQLiteMemoryDSN returns a shared-cache in-memory sqlite DSN unique to t.
// The database lives as long as one connection to it stays open.
func SQLiteMemoryDSN(t testing.TB) string {
	t.Helper()
	return "file:" + dsnReplacer.Replace(t.Name()) + "?mode=memory&cache=shared"
}

// WriteFile writes content to dir/name, creating dir when needed, and
// returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
