//go:build darwin

package trash

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// macOS keeps no metadata in ~/.Trash; name conflicts get a timestamp.
func getPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".Trash")
}

func isAvailable(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

func moveToTrash(dir, path string) error {
	baseName := filepath.Base(path)
	destPath := filepath.Join(dir, baseName)
	if _, err := os.Lstat(destPath); err == nil {
		ext := filepath.Ext(baseName)
		timestamp := time.Now().Format("2006-01-02-150405")
		destPath = filepath.Join(dir, fmt.Sprintf("%s %s%s", strings.TrimSuffix(baseName, ext), timestamp, ext))
	}

	if err := os.Rename(path, destPath); err != nil {
		return fmt.Errorf("cannot move %s to trash: %w", path, err)
	}
	return nil
}

func displayName() string {
	return "Trash"
}
