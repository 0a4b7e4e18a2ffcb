package app

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/justyntemme/docview/internal/model"
)

// FormatDate renders a millisecond timestamp relative to now: time of day
// for today, month and day within the year, the full date otherwise.
// Unknown timestamps render empty.
func FormatDate(ms int64, now time.Time) string {
	if ms < 0 {
		return ""
	}
	t := time.UnixMilli(ms).In(now.Location())

	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	switch {
	case ty == ny && tm == nm && td == nd:
		return t.Format("15:04")
	case ty == ny:
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// FormatSize renders an item size, or "" for containers, unknown sizes, or
// when sizes are hidden.
func FormatSize(item model.Item, showSize bool) string {
	if !showSize || item.IsContainer() || item.Size < 0 {
		return ""
	}
	return humanize.Bytes(uint64(item.Size))
}
