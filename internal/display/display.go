// Package display reconciles user-driven mode and sort changes with load
// completions. Every trigger goes through Reduce, which returns the new
// state and the side effects the caller must carry out.
package display

import (
	"fmt"

	"github.com/justyntemme/docview/internal/model"
)

// Event is one of ModeChanged, SortChanged, FilterChanged or LoadCompleted.
type Event interface {
	event()
}

// ModeChanged is a user toggle between list and grid.
type ModeChanged struct {
	Mode model.Mode
}

// SortChanged is a user pick of a new sort order.
type SortChanged struct {
	Order model.SortOrder
}

// FilterChanged replaces the accepted MIME patterns.
type FilterChanged struct {
	Accept []string
}

// LoadCompleted carries a result that has already passed the staleness check.
type LoadCompleted struct {
	Result model.LoadResult
}

func (ModeChanged) event()   {}
func (SortChanged) event()   {}
func (FilterChanged) event() {}
func (LoadCompleted) event() {}

// Effects lists what the caller must do after a transition. Reload and
// Rerender are never both set by the same event.
type Effects struct {
	// Reload asks the query source for a fresh result using UserSortOrder.
	Reload bool
	// PersistMode stores DerivedMode for the current container.
	PersistMode bool
	// Rerender redraws the existing rows.
	Rerender bool
	// Rebuild replaces the row model from the completed result.
	Rebuild      bool
	ScrollToTop  bool
	StateChanged bool
}

// Reduce applies ev to s. An unknown mode is a programming error and
// panics.
func Reduce(s model.DisplayState, ev Event) (model.DisplayState, Effects) {
	switch ev := ev.(type) {
	case ModeChanged:
		mustMode(ev.Mode)
		s.UserMode = ev.Mode
		s.DerivedMode = ev.Mode
		return s, Effects{PersistMode: true, Rerender: true, StateChanged: true}

	case SortChanged:
		s.UserSortOrder = ev.Order
		return s, Effects{Reload: true}

	case FilterChanged:
		s.AcceptMimes = append([]string(nil), ev.Accept...)
		if len(s.AcceptMimes) == 0 {
			s.AcceptMimes = []string{"*/*"}
		}
		return s, Effects{Rerender: true, StateChanged: true}

	case LoadCompleted:
		mustMode(ev.Result.Mode)
		prevSort := s.DerivedSortOrder
		s.DerivedMode = ev.Result.Mode
		s.DerivedSortOrder = ev.Result.SortOrder
		return s, Effects{
			Rebuild:      true,
			ScrollToTop:  prevSort != s.DerivedSortOrder,
			StateChanged: true,
		}
	}
	panic(fmt.Sprintf("display: unhandled event %T", ev))
}

func mustMode(m model.Mode) {
	if !m.Valid() {
		panic("display: unknown mode " + m.String())
	}
}

// Controller holds the current display state. It is owned by the event loop.
type Controller struct {
	state model.DisplayState
}

// NewController starts from initial. Derived values stay as given until the
// first load completes.
func NewController(initial model.DisplayState) *Controller {
	return &Controller{state: initial}
}

// Dispatch reduces ev into the held state.
func (c *Controller) Dispatch(ev Event) Effects {
	var fx Effects
	c.state, fx = Reduce(c.state, ev)
	return fx
}

// State returns a copy of the held state.
func (c *Controller) State() model.DisplayState {
	s := c.state
	s.AcceptMimes = append([]string(nil), c.state.AcceptMimes...)
	return s
}

// Mode is the mode rows are rendered with right now.
func (c *Controller) Mode() model.Mode {
	return c.state.DerivedMode
}
