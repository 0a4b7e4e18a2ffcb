// Package model holds the value types shared by the listing view-model:
// items, load results, and display state.
package model

import (
	"fmt"
	"strings"
)

// MimeTypeDir is the mime type reported for container items.
const MimeTypeDir = "inode/directory"

// DocID identifies a document within an authority. Compared by value.
type DocID struct {
	Authority  string
	DocumentID string
}

func (d DocID) String() string {
	return d.Authority + ":" + d.DocumentID
}

// IsZero reports whether the identifier is unset.
func (d DocID) IsZero() bool {
	return d.Authority == "" && d.DocumentID == ""
}

// Flags describe what an item supports.
type Flags uint8

const (
	FlagContainer Flags = 1 << iota
	FlagSupportsThumbnail
	FlagDeletable
)

// Item is one listed entry. Snapshots are immutable for a load cycle.
type Item struct {
	ID           DocID
	RootID       string
	DisplayName  string
	MimeType     string
	Flags        Flags
	Size         int64 // -1 when unknown or inapplicable
	LastModified int64 // unix millis, -1 when unknown
	Summary      string
	Icon         string // badge icon reference, empty when none
}

// IsContainer reports whether the item lists children of its own.
func (i Item) IsContainer() bool {
	return i.Flags&FlagContainer != 0 || i.MimeType == MimeTypeDir
}

// SupportsThumbnail reports whether a thumbnail may be requested.
func (i Item) SupportsThumbnail() bool {
	return i.Flags&FlagSupportsThumbnail != 0
}

// IsDeletable reports whether the provider accepts deletes for the item.
func (i Item) IsDeletable() bool {
	return i.Flags&FlagDeletable != 0
}

// Mode is the presentation mode.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeList
	ModeGrid
)

func (m Mode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeGrid:
		return "grid"
	default:
		return "unknown"
	}
}

// Valid reports whether m is one of the two recognized modes.
func (m Mode) Valid() bool {
	return m == ModeList || m == ModeGrid
}

// ParseMode parses "list" or "grid".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "list":
		return ModeList, nil
	case "grid":
		return ModeGrid, nil
	}
	return ModeUnknown, fmt.Errorf("unknown mode %q", s)
}

// SortOrder is the order requested from the query source.
type SortOrder int

const (
	SortUnknown SortOrder = iota
	SortByName
	SortByDate
	SortBySize
)

func (s SortOrder) String() string {
	switch s {
	case SortByName:
		return "name"
	case SortByDate:
		return "date"
	case SortBySize:
		return "size"
	default:
		return "unknown"
	}
}

// ParseSortOrder parses "name", "date" or "size".
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return SortByName, nil
	case "date", "modified":
		return SortByDate, nil
	case "size":
		return SortBySize, nil
	}
	return SortUnknown, fmt.Errorf("unknown sort order %q", s)
}

// LoadResult is one complete snapshot produced by the query source.
// An empty Info or Error means the message is absent.
type LoadResult struct {
	Items     []Item
	Mode      Mode
	SortOrder SortOrder
	Loading   bool
	Info      string
	Error     string
}

// LoadType selects what a load lists.
type LoadType int

const (
	LoadNormal LoadType = iota
	LoadSearch
)

// LoadRequest asks the query source for snapshots. Gen increases with every
// request a loader issues; only the latest generation is ever applied.
type LoadRequest struct {
	LoaderID string
	Gen      int64
	Type     LoadType
	RootID   string
	Dir      DocID
	Query    string
	Sort     SortOrder
	UserMode Mode
}

// DisplayState is the presentation state of one directory view.
type DisplayState struct {
	DerivedMode      Mode
	DerivedSortOrder SortOrder
	UserMode         Mode
	UserSortOrder    SortOrder
	AcceptMimes      []string
	AllowMultiple    bool
	ShowSize         bool
}
