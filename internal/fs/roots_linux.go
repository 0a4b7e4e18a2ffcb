//go:build linux

package fs

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ListRoots returns mounted volumes from /proc/mounts, root first.
func ListRoots() []Root {
	roots := []Root{{Title: "/ (Root)", Path: "/"}}

	file, err := os.Open("/proc/mounts")
	if err != nil {
		return roots
	}
	defer file.Close()

	seen := map[string]bool{"/": true}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mountPoint, fsType := fields[1], fields[2]

		// Skip virtual filesystems
		if shouldSkipPath(mountPoint) ||
			fsType == "tmpfs" ||
			fsType == "devtmpfs" ||
			fsType == "cgroup" ||
			fsType == "cgroup2" ||
			seen[mountPoint] {
			continue
		}

		title := mountPoint
		if strings.HasPrefix(mountPoint, "/media/") || strings.HasPrefix(mountPoint, "/mnt/") {
			title = filepath.Base(mountPoint)
		} else if mountPoint == "/home" {
			title = "Home"
		}

		seen[mountPoint] = true
		roots = append(roots, Root{Title: title, Path: mountPoint})
	}
	return roots
}
