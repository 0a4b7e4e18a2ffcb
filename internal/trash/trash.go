// Package trash deletes local documents by moving them to the system trash.
package trash

import (
	"context"
	"fmt"
	"os"

	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/model"
)

// Deleter removes documents of one authority whose ids are paths.
type Deleter struct {
	Authority string
	// Permanent skips the trash.
	Permanent bool
	// Dir overrides the trash location where the platform has one on disk.
	Dir string
}

func (d *Deleter) dir() string {
	if d.Dir != "" {
		return d.Dir
	}
	return getPath()
}

// Delete moves id to the trash, or removes it when the trash is
// unavailable or Permanent is set.
func (d *Deleter) Delete(ctx context.Context, id model.DocID) error {
	if id.Authority != d.Authority {
		return fmt.Errorf("trash: authority %q not handled", id.Authority)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Lstat(id.DocumentID); err != nil {
		return err
	}

	if d.Permanent || !isAvailable(d.dir()) {
		debug.Log(debug.APP, "trash: permanently deleting %s", id.DocumentID)
		return PermanentDelete(id.DocumentID)
	}
	debug.Log(debug.APP, "trash: moving %s to %s", id.DocumentID, DisplayName())
	return moveToTrash(d.dir(), id.DocumentID)
}

// PermanentDelete removes a file or a whole directory tree.
func PermanentDelete(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

// DisplayName returns "Trash", or "Recycle Bin" on Windows.
func DisplayName() string {
	return displayName()
}
