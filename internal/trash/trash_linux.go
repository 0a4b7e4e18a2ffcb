//go:build linux

package trash

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Linux follows the freedesktop.org trash layout:
//
//	files/  trashed files
//	info/   <name>.trashinfo with Path= and DeletionDate=
func getPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "Trash")
}

func isAvailable(dir string) bool {
	if dir == "" {
		return false
	}
	return os.MkdirAll(filepath.Join(dir, "files"), 0o700) == nil &&
		os.MkdirAll(filepath.Join(dir, "info"), 0o700) == nil
}

func moveToTrash(dir, path string) error {
	filesPath := filepath.Join(dir, "files")
	infoPath := filepath.Join(dir, "info")

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	// Unique name in files/, numbered on conflict
	baseName := filepath.Base(absPath)
	destName := baseName
	destPath := filepath.Join(filesPath, destName)
	for counter := 1; ; counter++ {
		if _, err := os.Lstat(destPath); os.IsNotExist(err) {
			break
		}
		ext := filepath.Ext(baseName)
		destName = fmt.Sprintf("%s.%d%s", strings.TrimSuffix(baseName, ext), counter, ext)
		destPath = filepath.Join(filesPath, destName)
	}

	infoContent := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		url.PathEscape(absPath),
		time.Now().Format("2006-01-02T15:04:05"))
	infoFilePath := filepath.Join(infoPath, destName+".trashinfo")
	if err := os.WriteFile(infoFilePath, []byte(infoContent), 0o600); err != nil {
		return fmt.Errorf("cannot create trashinfo file: %w", err)
	}

	if err := os.Rename(absPath, destPath); err != nil {
		os.Remove(infoFilePath)
		return fmt.Errorf("cannot move file to trash: %w", err)
	}
	return nil
}

func displayName() string {
	return "Trash"
}
