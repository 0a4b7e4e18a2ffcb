//go:build darwin

package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// ListRoots returns the volumes under /Volumes, the boot volume first.
func ListRoots() []Root {
	var roots []Root
	var mu sync.Mutex

	conf := &fastwalk.Config{Follow: true}
	err := fastwalk.Walk(conf, "/Volumes", func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil || fullPath == "/Volumes" {
			return nil
		}
		if filepath.Dir(fullPath) != "/Volumes" || !d.IsDir() {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		// The boot volume is a symlink to /
		if target, err := os.Readlink(fullPath); err == nil && target == "/" {
			mu.Lock()
			roots = append([]Root{{Title: d.Name(), Path: "/"}}, roots...)
			mu.Unlock()
			return fastwalk.SkipDir
		}

		if _, err := os.Stat(fullPath); err != nil {
			return fastwalk.SkipDir
		}

		mu.Lock()
		roots = append(roots, Root{Title: d.Name(), Path: fullPath})
		mu.Unlock()
		return fastwalk.SkipDir
	})

	if err != nil || len(roots) == 0 {
		return []Root{{Title: "Macintosh HD", Path: "/"}}
	}
	return roots
}
