package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/mimefilter"
	"github.com/justyntemme/docview/internal/model"
)

var ErrNotDeletable = errors.New("document cannot be deleted")

// Deleter removes one document.
type Deleter interface {
	Delete(ctx context.Context, id model.DocID) error
}

// Notifier shows a user-visible message.
type Notifier interface {
	Notify(msg string)
}

// DeleteDocuments attempts every item, skipping those without the
// deletable flag. When any item fails a single notification is raised and
// the combined error returned.
func DeleteDocuments(ctx context.Context, d Deleter, n Notifier, items []model.Item) error {
	var errs error
	failed := 0
	for _, it := range items {
		if !it.IsDeletable() {
			failed++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", it.DisplayName, ErrNotDeletable))
			continue
		}
		if err := d.Delete(ctx, it.ID); err != nil {
			failed++
			debug.Warn(debug.APP, "Delete %s failed: %v", it.ID, err)
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", it.DisplayName, err))
		}
	}

	if failed > 0 {
		n.Notify(fmt.Sprintf("Couldn't delete %d of %d documents", failed, len(items)))
	}
	return errs
}

// ShareRequest is what a share target receives.
type ShareRequest struct {
	// MimeType is the item type for one item and the common type for several.
	MimeType string
	Items    []model.Item
	Multiple bool
}

// Sharer hands documents to another application.
type Sharer interface {
	Share(req ShareRequest) error
}

// ShareDocuments shares items. An empty selection does nothing.
func ShareDocuments(s Sharer, items []model.Item) error {
	switch len(items) {
	case 0:
		return nil
	case 1:
		return s.Share(ShareRequest{MimeType: items[0].MimeType, Items: items})
	}

	mimes := make([]string, len(items))
	for i, it := range items {
		mimes[i] = it.MimeType
	}
	return s.Share(ShareRequest{
		MimeType: mimefilter.CommonType(mimes),
		Items:    items,
		Multiple: true,
	})
}
