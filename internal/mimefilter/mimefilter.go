// Package mimefilter matches mime types against accept patterns such as
// "image/*" and derives static icons and common types for sets of mimes.
package mimefilter

import (
	"strings"

	"github.com/justyntemme/docview/internal/model"
)

// ListThumbnailMimes always get thumbnails in list mode.
var ListThumbnailMimes = []string{"image/*", "video/*"}

// Matches reports whether mimeType is accepted by any of patterns.
// A pattern may end in "/*" to accept a whole top-level type.
func Matches(patterns []string, mimeType string) bool {
	if len(patterns) == 0 {
		return false
	}
	mimeType = strings.ToLower(mimeType)
	for _, p := range patterns {
		if matchOne(strings.ToLower(p), mimeType) {
			return true
		}
	}
	return false
}

func matchOne(pattern, mimeType string) bool {
	if pattern == "*/*" || pattern == mimeType {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		top, _, found := strings.Cut(mimeType, "/")
		return found && top == prefix
	}
	return false
}

// Enabled reports whether an item can be picked under the accept filter.
// Containers are always enabled so the user can navigate into them.
func Enabled(patterns []string, item model.Item) bool {
	return item.IsContainer() || Matches(patterns, item.MimeType)
}

// Selectable reports whether an item may be checked for a bulk action.
func Selectable(patterns []string, item model.Item) bool {
	return !item.IsContainer() && Matches(patterns, item.MimeType)
}

// CommonType returns the narrowest pattern covering every mime in mimeTypes.
// Malformed entries after the first are ignored.
func CommonType(mimeTypes []string) string {
	if len(mimeTypes) == 0 {
		return "*/*"
	}
	top, sub, ok := strings.Cut(mimeTypes[0], "/")
	if !ok || strings.Contains(sub, "/") {
		return "*/*"
	}

	for _, m := range mimeTypes[1:] {
		t, s, ok := strings.Cut(m, "/")
		if !ok || strings.Contains(s, "/") {
			continue
		}
		if sub != s {
			sub = "*"
		}
		if top != t {
			top, sub = "*", "*"
			break
		}
	}
	return top + "/" + sub
}

// IconFor returns the static icon name used when no thumbnail is shown.
func IconFor(mimeType string) string {
	if mimeType == model.MimeTypeDir {
		return "folder"
	}
	top, sub, _ := strings.Cut(strings.ToLower(mimeType), "/")
	switch top {
	case "image", "video", "audio", "text":
		return top
	}
	switch {
	case strings.Contains(sub, "zip"), strings.Contains(sub, "tar"),
		strings.Contains(sub, "compressed"), strings.Contains(sub, "rar"):
		return "archive"
	case sub == "pdf":
		return "pdf"
	case strings.Contains(sub, "json"), strings.Contains(sub, "xml"), strings.Contains(sub, "javascript"):
		return "text"
	}
	return "generic"
}
