// Package ui renders directory views to a terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/justyntemme/docview/internal/app"
	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/model"
)

const (
	defaultPageSize    = 40
	defaultGridColumns = 4
	gridCellWidth      = 22
)

// Renderer draws the current view model as text frames. It implements
// app.Shell; every method runs on the event loop.
type Renderer struct {
	out         io.Writer
	pageSize    int
	gridColumns int

	vm       *app.DirectoryViewModel
	state    model.DisplayState
	offset   int
	selected int

	// slots are recycled across frames, one per visible row.
	slots []*Slot
}

func NewRenderer(out io.Writer, pageSize, gridColumns int) *Renderer {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if gridColumns <= 0 {
		gridColumns = defaultGridColumns
	}
	return &Renderer{out: out, pageSize: pageSize, gridColumns: gridColumns}
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// Render draws vm from the current scroll offset.
func (r *Renderer) Render(vm *app.DirectoryViewModel) {
	if r.vm != vm {
		r.offset = 0
		r.state = vm.DisplayState()
		r.selected = len(vm.CheckedItems())
	}
	r.vm = vm
	r.printf("%s\n", r.Frame())
}

// Redraw draws the last rendered view again.
func (r *Renderer) Redraw() {
	if r.vm != nil {
		r.Render(r.vm)
	}
}

func (r *Renderer) ScrollToTop() {
	r.offset = 0
}

// Scroll moves the window by delta pages and redraws.
func (r *Renderer) Scroll(delta int) {
	if r.vm == nil {
		return
	}
	r.offset = clamp(r.offset+delta*r.pageSize, 0, max(0, r.vm.RowCount()-1))
	r.Redraw()
}

func (r *Renderer) StateChanged(state model.DisplayState) {
	r.state = state
}

func (r *Renderer) SelectionChanged(count int) {
	r.selected = count
}

// Notify shows msg as a toast. Failure messages use the error style.
func (r *Renderer) Notify(msg string) {
	if strings.HasPrefix(msg, "Couldn't") || strings.HasPrefix(msg, "Can't") {
		r.ShowError(msg)
		return
	}
	r.ShowToast(msg, ToastInfo)
}

// Share prints the share request. A terminal has no share sheet, so the
// paths are written out for piping into another program.
func (r *Renderer) Share(req app.ShareRequest) error {
	debug.Log(debug.UI, "Share %d items as %s", len(req.Items), req.MimeType)
	r.printf("%s\n", headerStyle.Render(fmt.Sprintf("Share %s (%d)", req.MimeType, len(req.Items))))
	for _, it := range req.Items {
		r.printf("%s\n", it.ID.DocumentID)
	}
	return nil
}

func (r *Renderer) slot(i int) *Slot {
	for len(r.slots) <= i {
		r.slots = append(r.slots, &Slot{})
	}
	return r.slots[i]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
