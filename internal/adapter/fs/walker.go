package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"folio/internal/port"
)

type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*.epub"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Walk collects the matching files under root. Symlinks are followed, so a
// library assembled out of links into other collections still scans, and a
// directory reached twice through links is only visited once. Unreadable
// entries become warnings rather than aborting the walk.
func (w *Walker) Walk(root string) (port.WalkResult, error) {
	var result port.WalkResult

	root, err := filepath.Abs(root)
	if err != nil {
		return result, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return result, err
	}

	if !info.IsDir() {
		if w.shouldInclude(filepath.Base(root)) {
			result.Paths = append(result.Paths, root)
		}
		return result, nil
	}

	visited := make(map[string]struct{})
	w.walkDir(root, root, visited, &result)

	return result, nil
}

func (w *Walker) walkDir(root, dir string, visited map[string]struct{}, result *port.WalkResult) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", dir, err))
		return
	}
	if _, seen := visited[resolved]; seen {
		return
	}
	visited[resolved] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", dir, err))
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// Stat resolves symlinked entries to their targets.
		info, err := os.Stat(path)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", path, err))
			continue
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", path, err))
			continue
		}

		if info.IsDir() {
			if w.shouldExclude(relPath + "/") {
				continue
			}
			w.walkDir(root, path, visited, result)
			continue
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			result.Paths = append(result.Paths, path)
		}
	}
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

type Reader struct{}

func (Reader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
