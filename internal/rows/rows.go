// Package rows maps a load result into the flat, index-addressable row
// sequence the view layer renders: every data row followed by synthesized
// footer rows.
package rows

import (
	"fmt"

	"github.com/justyntemme/docview/internal/model"
)

// Kind tags a row.
type Kind int

const (
	KindData Kind = iota
	KindLoading
	KindInfo
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindLoading:
		return "loading"
	case KindInfo:
		return "info"
	case KindError:
		return "error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Row is either a data row (Index into the item sequence) or a footer
// carrying an optional message.
type Row struct {
	Kind    Kind
	Index   int
	Message string
}

// IsFooter reports whether r is a synthesized trailing row.
func (r Row) IsFooter() bool {
	return r.Kind != KindData
}

// Footers derives the trailing rows for a result: info, then error, then
// loading.
func Footers(result model.LoadResult) []Row {
	var footers []Row
	if result.Info != "" {
		footers = append(footers, Row{Kind: KindInfo, Index: -1, Message: result.Info})
	}
	if result.Error != "" {
		footers = append(footers, Row{Kind: KindError, Index: -1, Message: result.Error})
	}
	if result.Loading {
		footers = append(footers, Row{Kind: KindLoading, Index: -1})
	}
	return footers
}

// Model is immutable between rebuilds.
type Model struct {
	items []model.Item
	rows  []Row
}

// Empty is the model before any result arrives.
var Empty = &Model{}

// Rebuild computes a new model from result alone.
func Rebuild(result model.LoadResult) *Model {
	items := make([]model.Item, len(result.Items))
	copy(items, result.Items)

	footers := Footers(result)
	rows := make([]Row, 0, len(items)+len(footers))
	for i := range items {
		rows = append(rows, Row{Kind: KindData, Index: i})
	}
	rows = append(rows, footers...)

	return &Model{items: items, rows: rows}
}

// Len is the total row count.
func (m *Model) Len() int {
	return len(m.rows)
}

// ItemCount is the number of data rows.
func (m *Model) ItemCount() int {
	return len(m.items)
}

// FooterCount is the number of synthesized rows.
func (m *Model) FooterCount() int {
	return len(m.rows) - len(m.items)
}

// EmptyVisible reports whether the empty placeholder should show.
func (m *Model) EmptyVisible() bool {
	return len(m.rows) == 0
}

// At returns the row at position. It panics when position is outside the
// current row count, like a slice index.
func (m *Model) At(position int) Row {
	if position < 0 || position >= len(m.rows) {
		panic(fmt.Sprintf("rows: position %d out of range [0,%d)", position, len(m.rows)))
	}
	return m.rows[position]
}

// Item returns the item behind a data row position.
func (m *Model) Item(position int) (model.Item, bool) {
	r := m.At(position)
	if r.IsFooter() {
		return model.Item{}, false
	}
	return m.items[r.Index], true
}
