package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/justyntemme/docview/internal/model"
)

func initial() model.DisplayState {
	return model.DisplayState{
		DerivedMode:      model.ModeList,
		DerivedSortOrder: model.SortByName,
		UserMode:         model.ModeList,
		UserSortOrder:    model.SortByName,
		AcceptMimes:      []string{"*/*"},
		AllowMultiple:    true,
	}
}

func TestModeChangedNeverReloads(t *testing.T) {
	s, fx := Reduce(initial(), ModeChanged{Mode: model.ModeGrid})

	assert.Equal(t, model.ModeGrid, s.UserMode)
	assert.Equal(t, model.ModeGrid, s.DerivedMode)
	assert.Equal(t, model.SortByName, s.DerivedSortOrder)
	assert.Equal(t, Effects{PersistMode: true, Rerender: true, StateChanged: true}, fx)
}

func TestSortChangedAlwaysReloads(t *testing.T) {
	s, fx := Reduce(initial(), SortChanged{Order: model.SortByDate})

	assert.Equal(t, model.SortByDate, s.UserSortOrder)
	assert.Equal(t, model.SortByName, s.DerivedSortOrder, "derived order waits for the load")
	assert.Equal(t, Effects{Reload: true}, fx)

	// Re-picking the same order still reloads.
	_, fx = Reduce(s, SortChanged{Order: model.SortByDate})
	assert.True(t, fx.Reload)
}

func TestFilterChangedRerendersOnly(t *testing.T) {
	accept := []string{"image/*", "text/plain"}
	s, fx := Reduce(initial(), FilterChanged{Accept: accept})

	assert.Equal(t, []string{"image/*", "text/plain"}, s.AcceptMimes)
	assert.Equal(t, Effects{Rerender: true, StateChanged: true}, fx)
	accept[0] = "video/*"
	assert.Equal(t, "image/*", s.AcceptMimes[0], "patterns are copied")

	s, _ = Reduce(s, FilterChanged{})
	assert.Equal(t, []string{"*/*"}, s.AcceptMimes)
	assert.Equal(t, model.SortByName, s.DerivedSortOrder)
}

func TestLoadCompleted(t *testing.T) {
	tests := []struct {
		name       string
		result     model.LoadResult
		wantMode   model.Mode
		wantScroll bool
	}{
		{
			name:     "same order",
			result:   model.LoadResult{Mode: model.ModeGrid, SortOrder: model.SortByName},
			wantMode: model.ModeGrid,
		},
		{
			name:       "order changed",
			result:     model.LoadResult{Mode: model.ModeList, SortOrder: model.SortBySize},
			wantMode:   model.ModeList,
			wantScroll: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, fx := Reduce(initial(), LoadCompleted{Result: tt.result})

			assert.Equal(t, tt.wantMode, s.DerivedMode)
			assert.Equal(t, tt.result.SortOrder, s.DerivedSortOrder)
			assert.Equal(t, model.ModeList, s.UserMode)
			assert.True(t, fx.Rebuild)
			assert.True(t, fx.StateChanged)
			assert.False(t, fx.Reload)
			assert.Equal(t, tt.wantScroll, fx.ScrollToTop)
		})
	}
}

func TestLastWriteWinsOnDerivedMode(t *testing.T) {
	c := NewController(initial())

	// A reload is in flight when the user flips to grid; the load then lands
	// carrying list.
	c.Dispatch(SortChanged{Order: model.SortByDate})
	c.Dispatch(ModeChanged{Mode: model.ModeGrid})
	c.Dispatch(LoadCompleted{Result: model.LoadResult{Mode: model.ModeList, SortOrder: model.SortByDate}})
	assert.Equal(t, model.ModeList, c.Mode())

	c.Dispatch(ModeChanged{Mode: model.ModeGrid})
	assert.Equal(t, model.ModeGrid, c.Mode())
}

func TestUnknownModePanics(t *testing.T) {
	assert.Panics(t, func() { Reduce(initial(), ModeChanged{Mode: model.ModeUnknown}) })
	assert.Panics(t, func() { Reduce(initial(), LoadCompleted{Result: model.LoadResult{}}) })
}

func TestStateReturnsCopy(t *testing.T) {
	c := NewController(initial())
	s := c.State()
	s.AcceptMimes[0] = "image/*"
	assert.Equal(t, "*/*", c.State().AcceptMimes[0])
}
