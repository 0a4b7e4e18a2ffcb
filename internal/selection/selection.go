// Package selection tracks checked row positions against the current row
// model. It is owned by the event loop and is not safe for concurrent use.
package selection

import (
	"sort"

	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/mimefilter"
	"github.com/justyntemme/docview/internal/model"
	"github.com/justyntemme/docview/internal/rows"
)

// Controller holds the checked positions for one row model.
type Controller struct {
	rows          *rows.Model
	accept        []string
	allowMultiple bool
	checked       map[int]bool
}

// New returns a controller over an empty row model.
func New(accept []string, allowMultiple bool) *Controller {
	return &Controller{
		rows:          rows.Empty,
		accept:        accept,
		allowMultiple: allowMultiple,
		checked:       make(map[int]bool),
	}
}

// Reset binds the controller to a freshly rebuilt model and clears every
// checked position.
func (c *Controller) Reset(m *rows.Model) {
	if m == nil {
		m = rows.Empty
	}
	c.rows = m
	c.Clear()
}

// SetFilter replaces the accept patterns and drops checks that no longer
// pass them.
func (c *Controller) SetFilter(accept []string) {
	c.accept = accept
	for pos := range c.checked {
		if !c.selectable(pos) {
			delete(c.checked, pos)
		}
	}
}

// SetChecked checks or unchecks position and reports whether it is checked
// afterwards. A check on a footer, a container, or an item outside the
// filter is rejected and the position stays unchecked.
func (c *Controller) SetChecked(position int, checked bool) bool {
	if !checked {
		delete(c.checked, position)
		return false
	}
	if !c.selectable(position) {
		debug.Log(debug.UI, "Selection: rejected check at %d", position)
		delete(c.checked, position)
		return false
	}
	c.checked[position] = true
	return true
}

// IsChecked reports whether position is checked.
func (c *Controller) IsChecked(position int) bool {
	return c.checked[position]
}

// Toggle flips position and returns the new state.
func (c *Controller) Toggle(position int) bool {
	return c.SetChecked(position, !c.checked[position])
}

func (c *Controller) selectable(position int) bool {
	if !c.allowMultiple {
		return false
	}
	if position < 0 || position >= c.rows.Len() {
		return false
	}
	item, ok := c.rows.Item(position)
	if !ok {
		return false
	}
	return mimefilter.Selectable(c.accept, item)
}

// Positions returns the checked positions in ascending order.
func (c *Controller) Positions() []int {
	out := make([]int, 0, len(c.checked))
	for pos := range c.checked {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// CheckedItems returns the checked items in row order.
func (c *Controller) CheckedItems() []model.Item {
	positions := c.Positions()
	items := make([]model.Item, 0, len(positions))
	for _, pos := range positions {
		if item, ok := c.rows.Item(pos); ok {
			items = append(items, item)
		}
	}
	return items
}

func (c *Controller) Count() int {
	return len(c.checked)
}

// Empty drives contextual action visibility.
func (c *Controller) Empty() bool {
	return len(c.checked) == 0
}

func (c *Controller) Clear() {
	clear(c.checked)
}
