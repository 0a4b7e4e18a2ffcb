package fs

import (
	"path/filepath"
	"strings"
)

// Root is a mounted volume. Its Path doubles as the root id that view
// preferences are keyed under.
type Root struct {
	Title string
	Path  string
}

// RootFor returns the deepest root containing path, or "/" when none does.
func RootFor(path string, roots []Root) Root {
	best := Root{Title: "/", Path: string(filepath.Separator)}
	for _, r := range roots {
		if !within(path, r.Path) {
			continue
		}
		if len(r.Path) > len(best.Path) || !within(path, best.Path) {
			best = r
		}
	}
	return best
}

func within(path, root string) bool {
	if path == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(path, root)
}
