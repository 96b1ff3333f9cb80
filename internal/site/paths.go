package site

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// buildOutputPath maps a route to its file, using trailing-slash layout:
// "/" -> index.html, "proyectos/a" -> proyectos/a/index.html.
func buildOutputPath(route string) string {
	clean := strings.Trim(strings.TrimSpace(route), " \t\r\n/")
	if clean == "" {
		return "index.html"
	}
	return path.Join(clean, "index.html")
}

func checkOutputDir(output string, protected []string) error {
	out, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("site: resolve %s: %w", output, err)
	}
	for _, dir := range protected {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("site: resolve %s: %w", dir, err)
		}
		rel, err := filepath.Rel(out, abs)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return fmt.Errorf("%w: %s holds %s", ErrUnsafeOutputDir, output, dir)
		}
	}
	return nil
}
